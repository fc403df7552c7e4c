package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bhavya-jpg/proofora-backend/internal/logger"
	"github.com/bhavya-jpg/proofora-backend/internal/repos"
	"github.com/bhavya-jpg/proofora-backend/internal/types"
)

var ErrNoTitle = errors.New("design title is required")

// ErrFileNotSaved covers the defensive gap where the upload middleware
// reported success but the file is not on disk.
var ErrFileNotSaved = errors.New("uploaded file was not saved to disk")

type SaveDesignInput struct {
	Title      string
	FilePath   string
	StoredName string
}

type DesignService interface {
	// SaveScannedDesign runs the upload pipeline: validate, verify the file
	// on disk, scan, derive display attributes, persist. Every failure after
	// the file hit disk deletes it before returning.
	SaveScannedDesign(ctx context.Context, in SaveDesignInput) (*types.Design, error)
	GetDesign(ctx context.Context, id string) (*types.Design, error)
	ListDesigns(ctx context.Context, limit int) ([]*types.Design, int64, error)
}

type designService struct {
	db         *gorm.DB
	log        *logger.Logger
	designRepo repos.DesignRepo
	scanner    ScanClient
}

func NewDesignService(db *gorm.DB, baseLog *logger.Logger, designRepo repos.DesignRepo, scanner ScanClient) DesignService {
	return &designService{
		db:         db,
		log:        baseLog.With("service", "DesignService"),
		designRepo: designRepo,
		scanner:    scanner,
	}
}

func (s *designService) SaveScannedDesign(ctx context.Context, in SaveDesignInput) (*types.Design, error) {
	if strings.TrimSpace(in.Title) == "" {
		s.removeUploaded(in.FilePath)
		return nil, ErrNoTitle
	}

	info, err := os.Stat(in.FilePath)
	if err != nil {
		return nil, ErrFileNotSaved
	}

	result, err := s.scanner.Scan(ctx, in.FilePath)
	if err != nil {
		s.removeUploaded(in.FilePath)
		return nil, err
	}

	now := time.Now()
	record := &types.Design{
		ID:               uuid.New(),
		Title:            strings.TrimSpace(in.Title),
		ImageRef:         in.StoredName,
		UploadDate:       now,
		Status:           types.DesignStatusScanned,
		DesignID:         result.DesignID,
		ScanDuration:     result.ScanDuration,
		ScanTimestamp:    now,
		Metadata:         datatypes.JSON(result.Metadata),
		BlockchainStatus: types.ChainStatusPending,
		FileSize:         humanFileSize(info.Size()),
		Dimensions:       dimensionsLabel(result.View),
		Format:           strings.ToUpper(strings.TrimPrefix(filepath.Ext(in.StoredName), ".")),
	}

	if _, err := s.designRepo.Create(ctx, nil, record); err != nil {
		s.removeUploaded(in.FilePath)
		return nil, err
	}

	s.log.Info("Design persisted",
		"design_id", record.DesignID,
		"title", record.Title,
		"dimensions", record.Dimensions,
	)
	return record, nil
}

func (s *designService) GetDesign(ctx context.Context, id string) (*types.Design, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		// malformed ids behave like missing records
		return nil, repos.ErrDesignNotFound
	}
	return s.designRepo.GetByID(ctx, nil, parsed)
}

func (s *designService) ListDesigns(ctx context.Context, limit int) ([]*types.Design, int64, error) {
	designs, err := s.designRepo.ListNewestFirst(ctx, nil, limit)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.designRepo.CountAll(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	return designs, count, nil
}

// removeUploaded is best-effort orphan cleanup; a file already gone is fine.
func (s *designService) removeUploaded(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("Failed to remove uploaded file", "path", path, "error", err)
	}
}

func humanFileSize(sizeBytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(sizeBytes)/(1024*1024))
}

func dimensionsLabel(view types.MetadataView) string {
	if view.ImageInfo.Width > 0 && view.ImageInfo.Height > 0 {
		return fmt.Sprintf("%dx%d", view.ImageInfo.Width, view.ImageInfo.Height)
	}
	return "Unknown"
}
