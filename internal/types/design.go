package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Design status values. A record is created as "scanned"; nothing in the
// current pipeline moves it to "verified" or "flagged".
const (
	DesignStatusPending  = "pending"
	DesignStatusScanned  = "scanned"
	DesignStatusVerified = "verified"
	DesignStatusFlagged  = "flagged"
)

// Blockchain linkage status. Records created by the scan path stay at
// "pending" forever; the ledger path does not write Design rows.
const (
	ChainStatusPending    = "pending"
	ChainStatusProcessing = "processing"
	ChainStatusConfirmed  = "confirmed"
	ChainStatusFailed     = "failed"
)

type Design struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string         `gorm:"not null" json:"title"`
	ImageRef         string         `gorm:"column:image_ref;not null" json:"image_ref"`
	UploadDate       time.Time      `gorm:"column:upload_date;not null" json:"upload_date"`
	Status           string         `gorm:"not null;default:'pending'" json:"status"`
	DesignID         string         `gorm:"column:design_id;uniqueIndex;not null" json:"design_id"`
	ScanDuration     float64        `gorm:"column:scan_duration" json:"scan_duration"`
	ScanTimestamp    time.Time      `gorm:"column:scan_timestamp" json:"scan_timestamp"`
	Metadata         datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	BlockchainHash   *string        `gorm:"column:blockchain_hash" json:"blockchain_hash,omitempty"`
	TransactionHash  *string        `gorm:"column:transaction_hash" json:"transaction_hash,omitempty"`
	BlockchainStatus string         `gorm:"column:blockchain_status;not null;default:'pending'" json:"blockchain_status"`
	FileSize         string         `gorm:"column:file_size" json:"file_size"`
	Dimensions       string         `json:"dimensions"`
	Format           string         `json:"format"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (Design) TableName() string { return "design" }

// MetadataView is the narrow typed window into the scanner's schema-less
// metadata blob. Only the fields the pipeline itself depends on are exposed;
// everything else is stored and returned verbatim.
type MetadataView struct {
	ImageInfo struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"image_info"`
	Hashes struct {
		DesignFingerprint string `json:"design_fingerprint"`
	} `json:"hashes"`
}

func ParseMetadataView(raw []byte) (MetadataView, error) {
	var v MetadataView
	err := json.Unmarshal(raw, &v)
	return v, err
}
