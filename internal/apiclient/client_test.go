package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-transparency/backend/internal/wizard"
)

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000", "ftp://x", "http://"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}
}

func TestCreateProduct(t *testing.T) {
	var got wizard.Submission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"Product created successfully","product":{"id":"p1","product_name":"Bar"},"followUpQuestions":["Q1",{"text":"Q2"}]}`)
	}))
	defer srv.Close()

	client, err := New(srv.URL+"/", WithHTTPClient(srv.Client()), WithToken("tok"))
	require.NoError(t, err)

	created, err := client.CreateProduct(context.Background(), wizard.Submission{ProductName: "Bar", Category: "Food", Description: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Bar", got.ProductName)
	assert.Equal(t, "p1", created.Product.ID)
	assert.Equal(t, []string{"Q1", "Q2"}, created.FollowUpTexts())
}

func TestErrorsAreDecoded(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		message    string
		validation bool
	}{
		{"validation", http.StatusBadRequest, `{"error":"Validation error","details":[{"field":"category","message":"Required"}]}`, "Validation error", true},
		{"flat", http.StatusBadRequest, `{"error":"Invalid product ID"}`, "Invalid product ID", false},
		{"nested", http.StatusInternalServerError, `{"error":{"message":"Internal Server Error","status":500}}`, "Internal Server Error", false},
		{"not json", http.StatusBadGateway, `<html>`, "Bad Gateway", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			client, err := New(srv.URL, WithHTTPClient(srv.Client()))
			require.NoError(t, err)
			_, err = client.Report(context.Background(), "abc123")

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.message, apiErr.Message)
			assert.Equal(t, tc.validation, IsValidation(err))
		})
	}
}

func TestReportAndPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/reports/abc123":
			_, _ = io.WriteString(w, `{"productId":"abc123","score":85,"breakdown":{"ingredients":20,"sourcing":25,"certifications":20,"environmental":20},"recommendations":["x"],"generatedAt":"2026-01-02T03:04:05Z"}`)
		case "/api/reports/abc123/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = io.WriteString(w, "%PDF-1.3 fake")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	rep, err := client.Report(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, 85, rep.Score)
	assert.Equal(t, 25, rep.Breakdown.Sourcing)

	var buf bytes.Buffer
	require.NoError(t, client.ReportPDF(context.Background(), "abc123", &buf))
	assert.Equal(t, "%PDF-1.3 fake", buf.String())

	_, err = client.Questions(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
