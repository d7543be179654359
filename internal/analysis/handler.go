package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"skincare-gateway/internal/inference"
	"skincare-gateway/internal/shared/server/middleware"
	"skincare-gateway/internal/shared/server/respond"
)

const maxImageSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the analysis pipeline.
type Handler struct {
	Orch *Orchestrator
	Repo Repo // optional; analyses history
}

// NewHandler constructs a Handler.
func NewHandler(orch *Orchestrator, repo Repo) *Handler {
	return &Handler{Orch: orch, Repo: repo}
}

// RegisterRoutes attaches analysis routes to the router group. Extra guards
// apply to the submit route only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, submitGuards ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, submitGuards...), h.analyze)
	rg.POST("/analyze", handlers...)
	rg.GET("/results", h.results)
	rg.GET("/analyses", h.listAnalyses)
	rg.GET("/analyses/:id", h.getAnalysis)
	rg.GET("/analyses/:id/image", h.analysisImage)
}

// analyze accepts a multipart submission (image file or imageURL field,
// plus optional age/gender) and, when the pipeline completes, redirects to
// the results view carrying the canonical result.
func (h *Handler) analyze(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize)

	req := Request{
		UserID:   userID,
		ImageURL: strings.TrimSpace(c.PostForm("imageURL")),
		Age:      strings.TrimSpace(c.PostForm("age")),
		Gender:   strings.TrimSpace(c.PostForm("gender")),
	}

	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read image", nil)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read image", nil)
			return
		}
		req.FileName = fileHeader.Filename
		req.Image = data
	}

	target, err := h.Orch.Submit(c.Request.Context(), req)
	if err != nil {
		var svcErr *inference.ServiceError
		switch {
		case errors.Is(err, ErrNoImage):
			respond.Error(c, http.StatusBadRequest, "validation_error", "No image provided", nil)
		case errors.Is(err, ErrAnalysisInFlight):
			respond.Error(c, http.StatusConflict, "analysis_in_flight", "An analysis is already in progress", nil)
		case errors.Is(err, ErrClosed), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Hand-off cancelled before the dwell elapsed; nothing to navigate to.
			respond.Error(c, http.StatusServiceUnavailable, "analysis_cancelled", "Analysis was cancelled before completing", nil)
		case errors.As(err, &svcErr):
			respond.Error(c, http.StatusBadGateway, "analysis_failed", svcErr.Message, nil)
		default:
			respond.Error(c, http.StatusBadGateway, "analysis_failed", "analysis failed", nil)
		}
		return
	}

	c.Redirect(http.StatusSeeOther, target)
}

// results is the receiving view's boundary: it deserializes the data query
// parameter back into the canonical shape.
func (h *Handler) results(c *gin.Context) {
	result, err := DecodeResultPayload(c.Query(dataParam))
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingPayload):
			respond.Error(c, http.StatusBadRequest, "validation_error", "data query parameter is required", nil)
		default:
			respond.Error(c, http.StatusBadRequest, "validation_error", "malformed result payload", nil)
		}
		return
	}
	respond.OK(c, result)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	if h.Repo == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "analysis history is not enabled", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	recs, err := h.Repo.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}
	respond.OK(c, gin.H{"analyses": recs})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	rec, ok := h.loadOwnedRecord(c)
	if !ok {
		return
	}
	respond.OK(c, rec)
}

// analysisImage streams back the image stored with a submission.
func (h *Handler) analysisImage(c *gin.Context) {
	rec, ok := h.loadOwnedRecord(c)
	if !ok {
		return
	}
	if rec.ImageKey == "" {
		respond.Error(c, http.StatusNotFound, "not_found", "analysis has no stored image", nil)
		return
	}

	rc, err := h.Orch.Images.Open(c.Request.Context(), rec.ImageKey)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "stored image is unavailable", nil)
		return
	}
	defer rc.Close()

	var sniff [512]byte
	n, err := io.ReadFull(rc, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read stored image", nil)
		return
	}
	c.Header("Content-Type", http.DetectContentType(sniff[:n]))
	c.Status(http.StatusOK)
	if _, err := c.Writer.Write(sniff[:n]); err != nil {
		return
	}
	_, _ = io.Copy(c.Writer, rc)
}

// loadOwnedRecord fetches the :id record and enforces ownership. A record
// belonging to another user reads as absent.
func (h *Handler) loadOwnedRecord(c *gin.Context) (Record, bool) {
	if h.Repo == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "analysis history is not enabled", nil)
		return Record{}, false
	}
	userID := middleware.UserIDFromContext(c)

	rec, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load analysis", nil)
		}
		return Record{}, false
	}
	if rec.UserID != userID {
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		return Record{}, false
	}
	return rec, true
}
