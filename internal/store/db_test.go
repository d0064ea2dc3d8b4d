package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newProduct(name, category string) *Product {
	p := &Product{Name: name, Category: category, Description: "desc"}
	_ = p.SetAnswers(map[string]any{"ingredients": "Oats"})
	return p
}

func TestCreateAndGetProduct(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p := newProduct("Organic Granola", "Food & Snacks")
	require.NoError(t, db.CreateProduct(ctx, p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "food", p.CategoryKey)

	got, err := db.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Organic Granola", got.Name)
	assert.Equal(t, "Oats", got.Answers()["ingredients"])

	_, err = db.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProductsPaginates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		category := "Food"
		if i%2 == 1 {
			category = "Cosmetics"
		}
		require.NoError(t, db.CreateProduct(ctx, newProduct(fmt.Sprintf("Item %d", i), category)))
	}

	rows, total, err := db.ListProducts(ctx, ProductQuery{Offset: 0, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, rows, 2)

	rows, total, err = db.ListProducts(ctx, ProductQuery{Offset: 4, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, rows, 1)

	rows, total, err = db.ListProducts(ctx, ProductQuery{CategoryKey: "cosmetics"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 2)

	rows, _, err = db.ListProducts(ctx, ProductQuery{Search: "item 3"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Item 3", rows[0].Name)
}

func TestUpdateProductMergesAnswers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := newProduct("Granola", "Food")
	require.NoError(t, db.CreateProduct(ctx, p))

	name := "Granola Plus"
	category := "Beverages"
	updated, err := db.UpdateProduct(ctx, p.ID, ProductPatch{
		Name:     &name,
		Category: &category,
		Answers:  map[string]any{"sourcing": "Canada"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Granola Plus", updated.Name)
	assert.Equal(t, "beverages", updated.CategoryKey)
	assert.Equal(t, "desc", updated.Description)
	assert.Equal(t, map[string]any{"ingredients": "Oats", "sourcing": "Canada"}, updated.Answers())

	_, err = db.UpdateProduct(ctx, "missing", ProductPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := newProduct("Granola", "Food")
	require.NoError(t, db.CreateProduct(ctx, p))

	require.NoError(t, db.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, db.DeleteProduct(ctx, p.ID), ErrNotFound)
	_, err := db.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentUpdatesKeepEveryAnswer(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := newProduct("Granola", "Food")
	require.NoError(t, db.CreateProduct(ctx, p))

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := db.UpdateProduct(ctx, p.ID, ProductPatch{Answers: map[string]any{fmt.Sprintf("q%d", i): "yes"}})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := db.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Answers(), writers+1)
}

func TestProductAnswersTolerateBadJSON(t *testing.T) {
	p := Product{AnswersJSON: "{not json"}
	assert.Equal(t, map[string]any{}, p.Answers())
	assert.True(t, ProductPatch{}.Empty())
}
