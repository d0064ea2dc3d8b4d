package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"product-transparency/backend/internal/auth"
)

// handleRegister hashes the password and issues a token. Accounts are not
// persisted.
func (s *Server) handleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		s.renderBindError(c, err)
		return
	}
	account, err := auth.NewAccount(req.CompanyName, req.Email, req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		s.renderBindError(c, &validationError{details: []FieldDetail{{
			Field:   "password",
			Message: fmt.Sprintf("Must be at most %d bytes", auth.MaxPasswordBytes),
		}}})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	token, err := s.issuer.Issue(account.Identity)
	if err != nil {
		fail(c, err)
		return
	}
	logrus.WithField("user_id", account.ID).Info("company registered")
	c.JSON(http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    &account.Identity,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		s.renderBindError(c, err)
		return
	}
	identity, err := s.verifier.Verify(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.renderError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	token, err := s.issuer.Issue(identity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Message: "Login successful", Token: token, User: &identity})
}

// handleRefresh takes the token from the JSON body, or from a bearer
// Authorization header when the body has none.
func (s *Server) handleRefresh(c *gin.Context) {
	var req RefreshRequest
	_ = c.ShouldBindJSON(&req)
	raw := strings.TrimSpace(req.Token)
	if raw == "" {
		raw = bearerToken(c.GetHeader("Authorization"))
	}
	if raw == "" {
		s.renderError(c, http.StatusUnauthorized, "Token required")
		return
	}
	token, err := s.issuer.Refresh(raw)
	if err != nil {
		logrus.WithError(err).Debug("refresh rejected")
		s.renderError(c, http.StatusUnauthorized, "Invalid token")
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
