package types

import "time"

// Report size classes.
const (
	SizeSmall  = "SMALL"
	SizeMedium = "MEDIUM"
	SizeLarge  = "LARGE"
)

// Report statuses. VERIFIED is terminal; nothing in this service moves a
// report back to UNVERIFIED.
const (
	StatusUnverified = "UNVERIFIED"
	StatusVerified   = "VERIFIED"
)

// Citizens
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"size:64;unique;not null" json:"username"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Dump reports
type Report struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ReporterID  string    `gorm:"size:36;index;not null" json:"reporter_id"`
	Latitude    float64   `gorm:"not null" json:"latitude"`
	Longitude   float64   `gorm:"not null" json:"longitude"`
	SizeClass   string    `gorm:"size:8;not null" json:"size"`
	Description string    `gorm:"size:1024" json:"description,omitempty"`
	Fingerprint string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Status      string    `gorm:"size:16;index;not null;default:UNVERIFIED" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Who vouched for which report. The composite unique index is the
// at-most-one-verification-per-pair invariant.
type Verification struct {
	ID         uint64    `gorm:"primaryKey" json:"-"`
	ReportID   string    `gorm:"size:36;not null;uniqueIndex:uq_report_verifier" json:"report_id"`
	VerifierID string    `gorm:"size:36;not null;uniqueIndex:uq_report_verifier" json:"verifier_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Per-user reputation accumulator, created lazily on first award.
type ReputationScore struct {
	UserID          string `gorm:"primaryKey;size:36" json:"user_id"`
	TotalScore      int64  `gorm:"not null;default:0" json:"total_score"`
	VerifiedCredits int64  `gorm:"not null;default:0" json:"verified_credits"`
	// Decremented by the moderation service, never by this one.
	FalsePenalties int64     `gorm:"not null;default:0" json:"false_penalties"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// One row per paid (report, verifier) pair. The unique index is what makes
// reputation awards exactly-once under concurrent cascades.
type ReputationAward struct {
	ID         uint64    `gorm:"primaryKey" json:"-"`
	ReportID   string    `gorm:"size:36;not null;uniqueIndex:uq_award_pair" json:"report_id"`
	VerifierID string    `gorm:"size:36;not null;uniqueIndex:uq_award_pair" json:"verifier_id"`
	Points     int64     `gorm:"not null" json:"points"`
	CreatedAt  time.Time `json:"created_at"`
}

// Global photo-content registry, append-only. The primary key blocks any
// reuse of byte-identical photo content across all submissions ever made.
type PhotoFingerprint struct {
	Fingerprint string    `gorm:"primaryKey;size:64" json:"fingerprint"`
	UploaderID  string    `gorm:"size:36;not null" json:"uploader_id"`
	CreatedAt   time.Time `json:"created_at"`
}
