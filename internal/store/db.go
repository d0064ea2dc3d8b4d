package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"product-transparency/backend/internal/catalog"
)

var ErrNotFound = errors.New("product not found")

// Database wraps the GORM DB handle and exposes repository helpers.
// Writes go through mu so SQLite sees one writer at a time.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Product{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the connection, used by the health endpoint.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateProduct inserts p, assigning a UUID when it has no id.
func (d *Database) CreateProduct(ctx context.Context, p *Product) error {
	if p == nil {
		return errors.New("product is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	p.CategoryKey = catalog.CategoryKey(p.Category)
	if p.AnswersJSON == "" {
		p.AnswersJSON = "{}"
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.gorm.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// GetProduct loads one product by id.
func (d *Database) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := d.gorm.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// ListProducts returns a page of products, newest first, and the total
// number matching the filters.
func (d *Database) ListProducts(ctx context.Context, opts ProductQuery) ([]Product, int64, error) {
	base := d.gorm.WithContext(ctx).Model(&Product{})
	if opts.CategoryKey != "" {
		base = base.Where("category_key = ?", opts.CategoryKey)
	}
	if q := strings.TrimSpace(opts.Search); q != "" {
		like := fmt.Sprintf("%%%s%%", strings.ToLower(q))
		base = base.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := base.Order("created_at DESC").Order("id DESC").Offset(opts.Offset)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	var rows []Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return rows, total, nil
}

// UpdateProduct applies patch to the stored product and returns the result.
func (d *Database) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var updated Product
	err := d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&updated).Error; err != nil {
			return err
		}
		assign(&updated.Name, patch.Name)
		assign(&updated.Description, patch.Description)
		assign(&updated.Brand, patch.Brand)
		assign(&updated.Manufacturer, patch.Manufacturer)
		assign(&updated.TargetAudience, patch.TargetAudience)
		if patch.Category != nil {
			updated.Category = *patch.Category
			updated.CategoryKey = catalog.CategoryKey(updated.Category)
		}
		if len(patch.Answers) > 0 {
			answers := updated.Answers()
			for k, v := range patch.Answers {
				answers[k] = v
			}
			if err := updated.SetAnswers(answers); err != nil {
				return fmt.Errorf("encode answers: %w", err)
			}
		}
		return tx.Save(&updated).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &updated, nil
}

// DeleteProduct removes a product. Missing ids yield ErrNotFound.
func (d *Database) DeleteProduct(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	res := d.gorm.WithContext(ctx).Where("id = ?", id).Delete(&Product{})
	if res.Error != nil {
		return fmt.Errorf("delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
