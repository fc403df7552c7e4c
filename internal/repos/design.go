package repos

import (
  "context"
  "errors"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/bhavya-jpg/proofora-backend/internal/logger"
  "github.com/bhavya-jpg/proofora-backend/internal/types"
)

// ErrDuplicateDesign is returned when a record with the same scanner
// fingerprint already exists. The unique index on design_id is the only
// identity invariant the store enforces.
var ErrDuplicateDesign = errors.New("design fingerprint already registered")

var ErrDesignNotFound = errors.New("design not found")

type DesignRepo interface {
  Create(ctx context.Context, tx *gorm.DB, d *types.Design) (*types.Design, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Design, error)
  ListNewestFirst(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Design, error)
  CountAll(ctx context.Context, tx *gorm.DB) (int64, error)
}

type designRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewDesignRepo(db *gorm.DB, baseLog *logger.Logger) DesignRepo {
  repoLog := baseLog.With("repo", "DesignRepo")
  return &designRepo{db: db, log: repoLog}
}

func (r *designRepo) Create(ctx context.Context, tx *gorm.DB, d *types.Design) (*types.Design, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).Create(d).Error; err != nil {
    if errors.Is(err, gorm.ErrDuplicatedKey) {
      return nil, ErrDuplicateDesign
    }
    return nil, err
  }
  return d, nil
}

func (r *designRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Design, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Design
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrDesignNotFound
    }
    return nil, err
  }
  return &result, nil
}

// ListNewestFirst returns designs ordered by upload date, most recent first.
// A limit of 0 keeps the legacy unbounded listing.
func (r *designRepo) ListNewestFirst(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Design, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Design
  query := transaction.WithContext(ctx).Order("upload_date DESC")
  if limit > 0 {
    query = query.Limit(limit)
  }
  if err := query.Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *designRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).Model(&types.Design{}).Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}
