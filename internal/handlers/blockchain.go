package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bhavya-jpg/proofora-backend/internal/logger"
	"github.com/bhavya-jpg/proofora-backend/internal/middleware"
	"github.com/bhavya-jpg/proofora-backend/internal/services"
)

type BlockchainHandler struct {
	log    *logger.Logger
	ledger services.LedgerService
	cache  services.VerifyCache // nil when no cache is configured
}

func NewBlockchainHandler(log *logger.Logger, ledger services.LedgerService, cache services.VerifyCache) *BlockchainHandler {
	return &BlockchainHandler{
		log:    log.With("handler", "BlockchainHandler"),
		ledger: ledger,
		cache:  cache,
	}
}

// POST /api/blockchain/upload
// Registers the content hash of the uploaded file on the ledger. This path
// shares no identifier with the scan-and-store path.
func (h *BlockchainHandler) Upload(c *gin.Context) {
	f, ok := middleware.SavedFileFrom(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "NoFile", "No design file uploaded")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		h.removeFile(f.Path)
		RespondError(c, http.StatusBadRequest, "NoTitle", "Design title is required")
		return
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		h.removeFile(f.Path)
		RespondError(c, http.StatusInternalServerError, "FileNotSaved", "Uploaded file was not saved to disk")
		return
	}

	receipt, err := h.ledger.Register(c.Request.Context(), data, title)
	if err != nil {
		h.log.Error("Ledger registration failed", "error", err)
		h.removeFile(f.Path)
		RespondError(c, http.StatusInternalServerError, "LedgerError", err.Error())
		return
	}

	if h.cache != nil {
		h.cache.SetExists(c.Request.Context(), receipt.DesignHash)
	}

	RespondOK(c, http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"title":      title,
			"filename":   f.Name,
			"size":       f.Size,
			"blockchain": receipt,
		},
	})
}

// POST /api/blockchain/compare
// Probes the ledger for the exact content hash of the uploaded file. The
// probe file is removed afterward; nothing references it.
func (h *BlockchainHandler) Compare(c *gin.Context) {
	f, ok := middleware.SavedFileFrom(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "NoFile", "No design file uploaded")
		return
	}
	defer h.removeFile(f.Path)

	data, err := os.ReadFile(f.Path)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "FileNotSaved", "Uploaded file was not saved to disk")
		return
	}

	designHash := h.ledger.HashBytes(data)
	found := false
	cached := false
	if h.cache != nil {
		found, cached = h.cache.GetExists(c.Request.Context(), designHash)
	}
	if !cached {
		found, err = h.ledger.Exists(c.Request.Context(), data)
		if err != nil {
			h.log.Error("Ledger existence check failed", "error", err)
			RespondError(c, http.StatusInternalServerError, "LedgerError", err.Error())
			return
		}
		if found && h.cache != nil {
			h.cache.SetExists(c.Request.Context(), designHash)
		}
	}

	message := "No matching design found on the blockchain."
	recommendation := "This design appears to be original. You can register it."
	if found {
		message = "Plagiarism detected: this design is already registered on the blockchain."
		recommendation = "Do not register this design again. Verify ownership with the original registrant."
	}

	RespondOK(c, http.StatusOK, gin.H{
		"success":            true,
		"plagiarismDetected": found,
		"message":            message,
		"recommendation":     recommendation,
	})
}

// GET /api/blockchain/stats
func (h *BlockchainHandler) Stats(c *gin.Context) {
	if h.cache != nil {
		if stats, ok := h.cache.GetStats(c.Request.Context()); ok {
			h.respondStats(c, stats)
			return
		}
	}

	stats, err := h.ledger.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("Ledger stats failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "LedgerError", err.Error())
		return
	}
	if h.cache != nil {
		h.cache.SetStats(c.Request.Context(), stats)
	}
	h.respondStats(c, stats)
}

func (h *BlockchainHandler) respondStats(c *gin.Context, stats *services.LedgerStats) {
	RespondOK(c, http.StatusOK, gin.H{
		"success":      true,
		"totalDesigns": stats.TotalDesigns,
		"balance":      stats.Balance,
		"network":      stats.Network,
		"account":      stats.Account,
	})
}

func (h *BlockchainHandler) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.log.Warn("Failed to remove uploaded file", "path", path, "error", err)
	}
}
