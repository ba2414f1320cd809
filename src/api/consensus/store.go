package consensus

import (
	"context"

	"github.com/wastewatch/wastewatch-api/src/api/types"
)

// Tx is one atomic view of the report, verification, reputation and photo
// fingerprint tables. Every method reads and writes inside the same
// transaction; nothing is visible to other cascades until the enclosing
// Update commits.
type Tx interface {
	CreateReport(r *types.Report) error
	UpdateReportStatus(reportID, status string) error

	// ReportsNear returns reports inside the bounding box around
	// (lat, lon), excluding those authored by excludeUser, ordered by
	// ascending creation time. The box is a coarse prefilter; the engine
	// applies the exact great-circle test.
	ReportsNear(lat, lon, radiusMeters float64, excludeUser string) ([]types.Report, error)

	// RecordVerification inserts the (report, verifier) pair. A duplicate
	// pair is not an error: it returns created == false and changes
	// nothing. The cascade links the same pair from two directions and
	// relies on this.
	RecordVerification(reportID, verifierID string) (created bool, err error)
	CountVerifications(reportID string) (int, error)
	Verifiers(reportID string) ([]string, error)

	// RegisterFingerprint appends to the global photo registry. Reuse of a
	// registered fingerprint fails with ErrDuplicatePhoto.
	RegisterFingerprint(fingerprint, uploaderID string) error

	// AwardReputation pays points to verifierID for reportID at most once:
	// a replay of an already-paid pair returns awarded == false and does
	// not touch the accumulator.
	AwardReputation(reportID, verifierID string, points int64) (awarded bool, err error)
}

// Store runs one submission cascade as a single atomic unit. Implementations
// must provide at least repeatable-read isolation between concurrent calls
// and surface write collisions as ErrConflict so the engine can rerun the
// cascade.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
}
