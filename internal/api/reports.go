package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"product-transparency/backend/internal/catalog"
	"product-transparency/backend/internal/report"
)

func (s *Server) handleReport(c *gin.Context) {
	id, ok := s.productID(c, "productId")
	if !ok {
		return
	}
	rep, err := s.reports.Build(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// handleReportPDF renders the same report as handleReport. Rendering and
// writing stop when the client goes away.
func (s *Server) handleReportPDF(c *gin.Context) {
	id, ok := s.productID(c, "productId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rep, err := s.reports.Build(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "application/pdf")
	header.Set("Content-Disposition", "attachment; filename="+report.Filename(id))
	header.Set("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	err = report.RenderPDF(ctx, c.Writer, rep)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		logrus.WithField("product_id", id).Debug("pdf download abandoned by client")
		c.Abort()
	case !c.Writer.Written():
		header.Del("Content-Disposition")
		header.Del("Content-Type")
		fail(c, err)
	default:
		logrus.WithError(err).WithField("product_id", id).Warn("pdf write failed")
		c.Abort()
	}
}

func (s *Server) handleQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, QuestionsResponse{
		Steps:      catalog.Batches(),
		Categories: append([]string(nil), catalog.CategoryOptions...),
		Audiences:  append([]string(nil), catalog.AudienceOptions...),
	})
}
