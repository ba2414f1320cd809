package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/wastewatch/wastewatch-api/src/api/consensus"
	"github.com/wastewatch/wastewatch-api/src/api/geo"
	"github.com/wastewatch/wastewatch-api/src/api/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MySQL duplicate-entry and conflict errno values.
const (
	erDupEntry     = 1062
	erLockDeadlock = 1213
	erLockWait     = 1205
)

// Store backs the consensus engine with MySQL. Each Update is one GORM
// transaction; candidate rows are locked FOR UPDATE so two cascades over the
// same cluster serialize, and deadlocks surface as consensus.ErrConflict for
// the engine to retry.
type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Update(ctx context.Context, fn func(tx consensus.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&storeTx{db: tx})
	})
	if isRetryable(err) {
		return fmt.Errorf("%w: %v", consensus.ErrConflict, err)
	}
	return err
}

type storeTx struct{ db *gorm.DB }

func (t *storeTx) CreateReport(r *types.Report) error {
	if err := t.db.Create(r).Error; err != nil {
		// The fingerprint column carries its own unique index.
		if isDuplicateKey(err) {
			return consensus.ErrDuplicatePhoto
		}
		return err
	}
	return nil
}

func (t *storeTx) UpdateReportStatus(reportID, status string) error {
	return t.db.Model(&types.Report{}).
		Where("id = ?", reportID).
		Update("status", status).Error
}

func (t *storeTx) ReportsNear(lat, lon, radiusMeters float64, excludeUser string) ([]types.Report, error) {
	minLat, maxLat, minLon, maxLon := geo.BoundingBox(geo.Point{Lat: lat, Lon: lon}, radiusMeters)

	var out []types.Report
	err := t.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reporter_id <> ?", excludeUser).
		Where("latitude BETWEEN ? AND ?", minLat, maxLat).
		Where("longitude BETWEEN ? AND ?", minLon, maxLon).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

func (t *storeTx) RecordVerification(reportID, verifierID string) (bool, error) {
	v := types.Verification{
		ReportID:   reportID,
		VerifierID: verifierID,
		CreatedAt:  time.Now().UTC(),
	}
	err := t.db.Create(&v).Error
	if isDuplicateKey(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *storeTx) CountVerifications(reportID string) (int, error) {
	var n int64
	err := t.db.Model(&types.Verification{}).
		Where("report_id = ?", reportID).
		Count(&n).Error
	return int(n), err
}

func (t *storeTx) Verifiers(reportID string) ([]string, error) {
	var ids []string
	err := t.db.Model(&types.Verification{}).
		Where("report_id = ?", reportID).
		Order("created_at asc").
		Pluck("verifier_id", &ids).Error
	return ids, err
}

func (t *storeTx) RegisterFingerprint(fingerprint, uploaderID string) error {
	rec := types.PhotoFingerprint{
		Fingerprint: fingerprint,
		UploaderID:  uploaderID,
		CreatedAt:   time.Now().UTC(),
	}
	err := t.db.Create(&rec).Error
	if isDuplicateKey(err) {
		return consensus.ErrDuplicatePhoto
	}
	return err
}

func (t *storeTx) AwardReputation(reportID, verifierID string, points int64) (bool, error) {
	award := types.ReputationAward{
		ReportID:   reportID,
		VerifierID: verifierID,
		Points:     points,
		CreatedAt:  time.Now().UTC(),
	}
	err := t.db.Create(&award).Error
	if isDuplicateKey(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Upsert-with-increment on the per-user accumulator.
	score := types.ReputationScore{
		UserID:          verifierID,
		TotalScore:      points,
		VerifiedCredits: 1,
		UpdatedAt:       time.Now().UTC(),
	}
	err = t.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_score":      gorm.Expr("total_score + ?", points),
			"verified_credits": gorm.Expr("verified_credits + 1"),
			"updated_at":       time.Now().UTC(),
		}),
	}).Create(&score).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}

func isRetryable(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == erLockDeadlock || me.Number == erLockWait)
}
