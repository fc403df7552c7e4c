package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bhavya-jpg/proofora-backend/internal/logger"
	"github.com/bhavya-jpg/proofora-backend/internal/middleware"
	"github.com/bhavya-jpg/proofora-backend/internal/repos"
	"github.com/bhavya-jpg/proofora-backend/internal/services"
	"github.com/bhavya-jpg/proofora-backend/internal/types"
)

type DesignHandler struct {
	log           *logger.Logger
	designService services.DesignService
}

func NewDesignHandler(log *logger.Logger, dsvc services.DesignService) *DesignHandler {
	return &DesignHandler{
		log:           log.With("handler", "DesignHandler"),
		designService: dsvc,
	}
}

// POST /api/designs/save
// Multipart: "design" file (saved by the upload middleware), "title" string.
func (h *DesignHandler) SaveDesign(c *gin.Context) {
	f, ok := middleware.SavedFileFrom(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "NoFile", "No design file uploaded")
		return
	}

	design, err := h.designService.SaveScannedDesign(c.Request.Context(), services.SaveDesignInput{
		Title:      strings.TrimSpace(c.PostForm("title")),
		FilePath:   f.Path,
		StoredName: f.Name,
	})
	if err != nil {
		h.respondSaveError(c, err)
		return
	}

	RespondOK(c, http.StatusCreated, gin.H{
		"success": true,
		"message": "Design scanned and saved successfully",
		"design":  designDetailView(design),
	})
}

func (h *DesignHandler) respondSaveError(c *gin.Context, err error) {
	var scanErr *services.ScanError
	switch {
	case errors.Is(err, services.ErrNoTitle):
		RespondError(c, http.StatusBadRequest, "NoTitle", "Design title is required")
	case errors.Is(err, services.ErrFileNotSaved):
		RespondError(c, http.StatusInternalServerError, "FileNotSaved", "Uploaded file was not saved to disk")
	case errors.As(err, &scanErr):
		// pass the scanner's typed failure through unchanged
		RespondError(c, http.StatusInternalServerError, string(scanErr.Kind), scanErr.Message, scanErr.Trace...)
	case errors.Is(err, repos.ErrDuplicateDesign):
		RespondError(c, http.StatusInternalServerError, "PersistenceError", err.Error())
	default:
		h.log.Error("Save design failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "PersistenceError", "Failed to save design")
	}
}

// GET /api/designs and /api/designs/all
// Unbounded by default; ?limit= trims the result set.
func (h *DesignHandler) ListDesigns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	designs, count, err := h.designService.ListDesigns(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("List designs failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "PersistenceError", "Failed to fetch designs")
		return
	}

	views := make([]gin.H, 0, len(designs))
	for _, d := range designs {
		views = append(views, designListView(d))
	}
	RespondOK(c, http.StatusOK, gin.H{
		"success": true,
		"count":   count,
		"designs": views,
	})
}

// GET /api/designs/:id
func (h *DesignHandler) GetDesign(c *gin.Context) {
	design, err := h.designService.GetDesign(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repos.ErrDesignNotFound) {
			RespondError(c, http.StatusNotFound, "NotFound", "Design not found")
			return
		}
		h.log.Error("Get design failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "PersistenceError", "Failed to fetch design")
		return
	}
	RespondOK(c, http.StatusOK, gin.H{
		"success": true,
		"design":  designDetailView(design),
	})
}

func designListView(d *types.Design) gin.H {
	return gin.H{
		"id":               d.ID,
		"title":            d.Title,
		"image":            "/uploads/" + d.ImageRef,
		"uploadDate":       d.UploadDate,
		"status":           d.Status,
		"designId":         d.DesignID,
		"fileSize":         d.FileSize,
		"dimensions":       d.Dimensions,
		"format":           d.Format,
		"blockchainStatus": d.BlockchainStatus,
	}
}

func designDetailView(d *types.Design) gin.H {
	view := designListView(d)
	view["scanDuration"] = d.ScanDuration
	view["scanTimestamp"] = d.ScanTimestamp
	view["metadata"] = d.Metadata
	view["blockchainHash"] = d.BlockchainHash
	view["transactionHash"] = d.TransactionHash
	return view
}
