package middleware

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bhavya-jpg/proofora-backend/internal/logger"
)

// Size caps per route family. The scan path accepts larger files than the
// ledger paths.
const (
	ScanMaxBytes   int64 = 50 << 20
	LedgerMaxBytes int64 = 10 << 20
)

const savedFileKey = "uploaded_design"

var allowedExts = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
}

// SavedFile describes the upload after the middleware wrote it to disk.
type SavedFile struct {
	Path         string
	Name         string
	OriginalName string
	Ext          string
	Size         int64
}

func SavedFileFrom(c *gin.Context) (*SavedFile, bool) {
	v, ok := c.Get(savedFileKey)
	if !ok {
		return nil, false
	}
	f, ok := v.(*SavedFile)
	return f, ok
}

type UploadMiddleware struct {
	log *logger.Logger
	dir string
}

func NewUploadMiddleware(log *logger.Logger, dir string) (*UploadMiddleware, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &UploadMiddleware{
		log: log.With("middleware", "UploadMiddleware"),
		dir: dir,
	}, nil
}

func (m *UploadMiddleware) Dir() string { return m.dir }

// Single saves exactly one uploaded file from the named multipart field,
// double-checking extension and reported MIME type against the image
// allow-list, and stores it under a collision-resistant generated name.
func (m *UploadMiddleware) Single(field string, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile(field)
		if err != nil {
			abortUpload(c, http.StatusBadRequest, "NoFile", "No design file uploaded")
			return
		}

		if fh.Size > maxBytes {
			abortUpload(c, http.StatusBadRequest, "FileTooLarge",
				fmt.Sprintf("File exceeds the %dMB limit", maxBytes>>20))
			return
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
		wantMime, extOK := allowedExts[ext]
		reportedMime := fh.Header.Get("Content-Type")
		if !extOK || !mimeAllowed(reportedMime, wantMime) {
			abortUpload(c, http.StatusBadRequest, "InvalidFileType",
				"Only image files are allowed (jpeg, jpg, png, gif, webp, svg)")
			return
		}

		name := fmt.Sprintf("design-%d-%09d.%s", time.Now().UnixMilli(), rand.Intn(1_000_000_000), ext)
		dst := filepath.Join(m.dir, name)
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			m.log.Error("Failed to persist upload", "error", err, "dst", dst)
			abortUpload(c, http.StatusInternalServerError, "UploadFailed", "Could not save the uploaded file")
			return
		}

		c.Set(savedFileKey, &SavedFile{
			Path:         dst,
			Name:         name,
			OriginalName: fh.Filename,
			Ext:          ext,
			Size:         fh.Size,
		})
		c.Next()
	}
}

func mimeAllowed(reported, want string) bool {
	reported = strings.ToLower(strings.TrimSpace(reported))
	if reported == "" || reported == "application/octet-stream" {
		// browsers occasionally omit the part type; the extension check
		// already passed
		return true
	}
	if reported == want {
		return true
	}
	// image/jpg is common despite not being registered
	return want == "image/jpeg" && reported == "image/jpg"
}

func abortUpload(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   kind,
		"message": message,
	})
}
