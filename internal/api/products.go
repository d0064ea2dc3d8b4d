package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"product-transparency/backend/internal/catalog"
	"product-transparency/backend/internal/report"
	"product-transparency/backend/internal/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func (s *Server) handleCreateProduct(c *gin.Context) {
	var req CreateProductRequest
	bindErr := bindJSON(c, &req)
	if err := mergeDetails(bindErr, requireText(map[string]string{
		"product_name": req.ProductName,
		"category":     req.Category,
		"description":  req.Description,
	})); err != nil {
		s.renderBindError(c, err)
		return
	}

	product := &store.Product{
		Name:           strings.TrimSpace(req.ProductName),
		Category:       strings.TrimSpace(req.Category),
		Description:    strings.TrimSpace(req.Description),
		Brand:          strings.TrimSpace(req.Brand),
		Manufacturer:   strings.TrimSpace(req.Manufacturer),
		TargetAudience: strings.TrimSpace(req.TargetAudience),
	}
	if err := product.SetAnswers(req.Answers); err != nil {
		s.renderBindError(c, &validationError{details: []FieldDetail{{Field: "answers", Message: "Answers must be JSON values"}}})
		return
	}
	if err := s.store.CreateProduct(c.Request.Context(), product); err != nil {
		fail(c, err)
		return
	}

	answers := req.Answers
	if answers == nil {
		answers = map[string]any{}
	}
	questions, err := s.questions.GenerateQuestions(c.Request.Context(), product.Category, answers)
	if err != nil {
		logrus.WithError(err).WithField("product_id", product.ID).Warn("follow-up questions unavailable")
	}
	dto := ProductFromModel(*product)
	resp := CreateProductResponse{
		Message:           "Product created successfully",
		Product:           dto,
		FollowUpQuestions: questions,
	}
	if resp.FollowUpQuestions == nil {
		resp.FollowUpQuestions = []json.RawMessage{}
	}

	s.notifier.Broadcast(ProductEvent{Type: EventCreated, ProductID: product.ID, Product: &dto})
	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"category":   product.CategoryKey,
		"follow_ups": len(resp.FollowUpQuestions),
	}).Info("product created")
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleGetProduct(c *gin.Context) {
	id, ok := s.productID(c, "id")
	if !ok {
		return
	}
	product, err := s.store.GetProduct(c.Request.Context(), id)
	if err != nil {
		s.renderStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProductFromModel(*product))
}

func (s *Server) handleListProducts(c *gin.Context) {
	page := positiveQuery(c, "page", 1)
	limit := positiveQuery(c, "limit", defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	// keeps (page-1)*limit from overflowing
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}

	rows, total, err := s.store.ListProducts(c.Request.Context(), store.ProductQuery{
		CategoryKey: catalog.CategoryKey(c.Query("category")),
		Search:      c.Query("q"),
		Offset:      (page - 1) * limit,
		Limit:       limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ProductFromModel(row))
	}
	c.JSON(http.StatusOK, ProductsResponse{Products: dtos, Total: total, Page: page, Limit: limit})
}

func (s *Server) handleUpdateProduct(c *gin.Context) {
	id, ok := s.productID(c, "id")
	if !ok {
		return
	}
	var req UpdateProductRequest
	bindErr := bindJSON(c, &req)
	patch := req.patch()
	present := map[string]string{}
	if patch.Name != nil {
		present["product_name"] = *patch.Name
	}
	if patch.Category != nil {
		present["category"] = *patch.Category
	}
	if patch.Description != nil {
		present["description"] = *patch.Description
	}
	if err := mergeDetails(bindErr, requireText(present)); err != nil {
		s.renderBindError(c, err)
		return
	}
	if patch.Empty() {
		s.renderBindError(c, &validationError{details: []FieldDetail{{Field: "body", Message: "No fields to update"}}})
		return
	}

	product, err := s.store.UpdateProduct(c.Request.Context(), id, patch)
	if err != nil {
		s.renderStoreError(c, err)
		return
	}
	dto := ProductFromModel(*product)
	s.notifier.Broadcast(ProductEvent{Type: EventUpdated, ProductID: id, Product: &dto})
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": dto})
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	id, ok := s.productID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteProduct(c.Request.Context(), id); err != nil {
		s.renderStoreError(c, err)
		return
	}
	s.notifier.Broadcast(ProductEvent{Type: EventDeleted, ProductID: id})
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// productID reads and checks an id path parameter, answering 400 itself
// when it is malformed.
func (s *Server) productID(c *gin.Context, param string) (string, bool) {
	id := c.Param(param)
	if !report.ValidProductID(id) {
		s.renderError(c, http.StatusBadRequest, "Invalid product ID")
		return "", false
	}
	return id, true
}

func (s *Server) renderStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.renderError(c, http.StatusNotFound, "Product not found")
		return
	}
	fail(c, err)
}

func positiveQuery(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
