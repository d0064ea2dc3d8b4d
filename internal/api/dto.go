package api

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"product-transparency/backend/internal/auth"
	"product-transparency/backend/internal/catalog"
	"product-transparency/backend/internal/store"
)

// CreateProductRequest is the body of POST /api/products.
type CreateProductRequest struct {
	ProductName    string         `json:"product_name" binding:"required,min=1,max=200"`
	Category       string         `json:"category" binding:"required,min=1,max=100"`
	Description    string         `json:"description" binding:"required,min=1,max=5000"`
	Brand          string         `json:"brand_name" binding:"max=200"`
	Manufacturer   string         `json:"manufacturer" binding:"max=200"`
	TargetAudience string         `json:"target_audience" binding:"max=100"`
	Answers        map[string]any `json:"answers"`
}

// UpdateProductRequest is the body of PUT /api/products/:id. Present fields
// obey the create constraints.
type UpdateProductRequest struct {
	ProductName    *string        `json:"product_name" binding:"omitempty,min=1,max=200"`
	Category       *string        `json:"category" binding:"omitempty,min=1,max=100"`
	Description    *string        `json:"description" binding:"omitempty,min=1,max=5000"`
	Brand          *string        `json:"brand_name" binding:"omitempty,max=200"`
	Manufacturer   *string        `json:"manufacturer" binding:"omitempty,max=200"`
	TargetAudience *string        `json:"target_audience" binding:"omitempty,max=100"`
	Answers        map[string]any `json:"answers"`
}

// patch converts the request into a store patch with the same trimming as
// create.
func (r UpdateProductRequest) patch() store.ProductPatch {
	return store.ProductPatch{
		Name:           trimmed(r.ProductName),
		Category:       trimmed(r.Category),
		Description:    trimmed(r.Description),
		Brand:          trimmed(r.Brand),
		Manufacturer:   trimmed(r.Manufacturer),
		TargetAudience: trimmed(r.TargetAudience),
		Answers:        r.Answers,
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}

// ProductDTO is the API representation of a stored product.
type ProductDTO struct {
	ID             string         `json:"id"`
	ProductName    string         `json:"product_name"`
	Category       string         `json:"category"`
	Description    string         `json:"description"`
	Brand          string         `json:"brand_name,omitempty"`
	Manufacturer   string         `json:"manufacturer,omitempty"`
	TargetAudience string         `json:"target_audience,omitempty"`
	Answers        map[string]any `json:"answers"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ProductFromModel converts a store row to its DTO.
func ProductFromModel(p store.Product) ProductDTO {
	return ProductDTO{
		ID:             p.ID,
		ProductName:    p.Name,
		Category:       p.Category,
		Description:    p.Description,
		Brand:          p.Brand,
		Manufacturer:   p.Manufacturer,
		TargetAudience: p.TargetAudience,
		Answers:        p.Answers(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// CreateProductResponse is returned with 201 from POST /api/products.
type CreateProductResponse struct {
	Message           string            `json:"message"`
	Product           ProductDTO        `json:"product"`
	FollowUpQuestions []json.RawMessage `json:"followUpQuestions"`
}

// ProductsResponse is one page of products.
type ProductsResponse struct {
	Products []ProductDTO `json:"products"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	CompanyName string `json:"companyName" binding:"required,min=2"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body of POST /api/auth/refresh.
type RefreshRequest struct {
	Token string `json:"token"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Message string         `json:"message,omitempty"`
	Token   string         `json:"token"`
	User    *auth.Identity `json:"user,omitempty"`
}

// QuestionsResponse lists the intake question batches and select options.
type QuestionsResponse struct {
	Steps      []catalog.Batch `json:"steps"`
	Categories []string        `json:"categories"`
	Audiences  []string        `json:"audiences"`
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
