package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// FieldDetail names one failing request field.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validationError is answered with 400 {error: "Validation error", details}.
type validationError struct {
	details []FieldDetail
}

func (e *validationError) Error() string {
	names := make([]string, len(e.details))
	for i, d := range e.details {
		names[i] = d.Field
	}
	return "validation failed: " + strings.Join(names, ", ")
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report json names ("product_name")
// instead of Go field names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindJSON decodes and validates the body into dst. Every field is checked:
// values of the wrong JSON type and validator failures are collected into one
// *validationError. Oversized bodies come back as an *httpError.
func bindJSON(c *gin.Context, dst any) error {
	useJSONFieldNames()
	var raw []byte
	if c.Request.Body != nil {
		var err error
		raw, err = io.ReadAll(c.Request.Body)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return withStatus(http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit))
		}
		if err != nil {
			return withStatus(http.StatusBadRequest, fmt.Errorf("read request body: %w", err))
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &validationError{details: []FieldDetail{{Field: "body", Message: "Request body is required"}}}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return &validationError{details: []FieldDetail{{Field: "body", Message: "Malformed JSON"}}}
	}

	details := typeMismatches(dst, fields)
	mistyped := make(map[string]bool, len(details))
	for _, d := range details {
		mistyped[d.Field] = true
	}
	// Mistyped fields are skipped by the decoder and reported above.
	_ = json.Unmarshal(raw, dst)

	if err := binding.Validator.ValidateStruct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			if !mistyped[fe.Field()] {
				details = append(details, FieldDetail{Field: fe.Field(), Message: describe(fe)})
			}
		}
	}
	if len(details) == 0 {
		return nil
	}
	return &validationError{details: details}
}

// typeMismatches decodes every present field of the struct dst points to on
// its own and reports the ones whose JSON type does not fit.
func typeMismatches(dst any, fields map[string]json.RawMessage) []FieldDetail {
	t := reflect.TypeOf(dst)
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil
	}
	t = t.Elem()
	var details []FieldDetail
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" || !f.IsExported() {
			continue
		}
		value, ok := fields[name]
		if !ok || string(value) == "null" {
			continue
		}
		if err := json.Unmarshal(value, reflect.New(f.Type).Interface()); err != nil {
			details = append(details, FieldDetail{Field: name, Message: "Expected " + jsonKind(f.Type)})
		}
	}
	return details
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	}
	return "number"
}

// mergeDetails combines validation failures into one *validationError,
// keeping the first detail per field. Any other error is returned as is.
func mergeDetails(errs ...error) error {
	var details []FieldDetail
	seen := map[string]bool{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var verr *validationError
		if !errors.As(err, &verr) {
			return err
		}
		for _, d := range verr.details {
			if !seen[d.Field] {
				seen[d.Field] = true
				details = append(details, d)
			}
		}
	}
	if len(details) == 0 {
		return nil
	}
	return &validationError{details: details}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "email":
		return "Invalid email"
	}
	return fmt.Sprintf("Failed %s validation", fe.Tag())
}

// renderBindError answers a bindJSON failure.
func (s *Server) renderBindError(c *gin.Context, err error) {
	var verr *validationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": verr.details})
		return
	}
	fail(c, err)
}

// requireText adds a detail for every required field that is only whitespace.
func requireText(fields map[string]string) error {
	var details []FieldDetail
	for _, name := range sortedKeys(fields) {
		if strings.TrimSpace(fields[name]) == "" {
			details = append(details, FieldDetail{Field: name, Message: "Required"})
		}
	}
	if len(details) == 0 {
		return nil
	}
	return &validationError{details: details}
}
