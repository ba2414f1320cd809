package consensus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wastewatch/wastewatch-api/src/api/geo"
	"github.com/wastewatch/wastewatch-api/src/api/photo"
	"github.com/wastewatch/wastewatch-api/src/api/types"
)

// VerifyThreshold is the number of distinct verifiers that promotes a report
// to VERIFIED. The reporter's self-verification counts as the first, so one
// independent corroborator is enough.
const VerifyThreshold = 2

// How many times a cascade is rerun when it loses a write race before the
// failure is surfaced.
const maxAttempts = 3

type Config struct {
	ClusterRadiusMeters float64
	PointsPerVerified   int64
}

type Submission struct {
	ReporterID  string
	Latitude    float64
	Longitude   float64
	SizeClass   string
	Description string
	Photo       []byte
}

// Outcome kinds for one processed nearby report.
type OutcomeKind int

const (
	// OutcomeSkipped: the pair was already linked, nothing changed.
	OutcomeSkipped OutcomeKind = iota
	// OutcomeLinked: a new verification edge was recorded, still below
	// threshold.
	OutcomeLinked
	// OutcomeThresholdCrossed: the nearby report was promoted to VERIFIED.
	OutcomeThresholdCrossed
)

type Award struct {
	ReportID   string `json:"report_id"`
	VerifierID string `json:"verifier_id"`
	Points     int64  `json:"points"`
}

// NeighborOutcome records what the cascade did to one nearby report, so a
// full submission is auditable after the fact.
type NeighborOutcome struct {
	ReportID string
	Kind     OutcomeKind
	Awards   []Award
}

type Result struct {
	Report            types.Report
	VerificationCount int
	Verified          bool
	Neighbors         []NeighborOutcome
	Awards            []Award
}

// Engine decides, for every new report, which existing reports it
// corroborates, whether any report crosses the verification threshold, and
// how reputation is paid out. One Submit call is one atomic unit.
type Engine struct {
	store Store
	cfg   Config
}

func New(store Store, cfg Config) *Engine {
	if cfg.ClusterRadiusMeters <= 0 {
		cfg.ClusterRadiusMeters = 100
	}
	if cfg.PointsPerVerified <= 0 {
		cfg.PointsPerVerified = 10
	}
	return &Engine{store: store, cfg: cfg}
}

// Submit runs the full consensus cascade for one report. Validation and
// fingerprinting happen before any store access; after that either the whole
// cascade commits or nothing does. Write races with sibling cascades over
// the same cluster are retried transparently.
func (e *Engine) Submit(ctx context.Context, sub Submission) (*Result, error) {
	if err := validate(sub); err != nil {
		return nil, err
	}
	fp, err := photo.Fingerprint(sub.Photo)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		res, err := e.runCascade(ctx, sub, fp)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("submission retries exhausted: %w", lastErr)
}

func validate(sub Submission) error {
	if sub.ReporterID == "" {
		return fmt.Errorf("%w: missing reporter", ErrValidation)
	}
	if !geo.ValidCoordinates(sub.Latitude, sub.Longitude) {
		return fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	switch sub.SizeClass {
	case types.SizeSmall, types.SizeMedium, types.SizeLarge:
	default:
		return fmt.Errorf("%w: unknown size class %q", ErrValidation, sub.SizeClass)
	}
	if len(sub.Photo) == 0 {
		return fmt.Errorf("%w: missing photo", ErrValidation)
	}
	return nil
}

func (e *Engine) runCascade(ctx context.Context, sub Submission, fp string) (*Result, error) {
	res := &Result{}
	err := e.store.Update(ctx, func(tx Tx) error {
		// A retried cascade starts from scratch.
		*res = Result{}

		if err := tx.RegisterFingerprint(fp, sub.ReporterID); err != nil {
			return err
		}

		report := types.Report{
			ID:          uuid.NewString(),
			ReporterID:  sub.ReporterID,
			Latitude:    sub.Latitude,
			Longitude:   sub.Longitude,
			SizeClass:   sub.SizeClass,
			Description: sub.Description,
			Fingerprint: fp,
			Status:      types.StatusUnverified,
			CreatedAt:   time.Now().UTC(),
		}
		if err := tx.CreateReport(&report); err != nil {
			return err
		}
		if _, err := tx.RecordVerification(report.ID, sub.ReporterID); err != nil {
			return err
		}

		here := geo.Point{Lat: sub.Latitude, Lon: sub.Longitude}
		candidates, err := tx.ReportsNear(sub.Latitude, sub.Longitude, e.cfg.ClusterRadiusMeters, sub.ReporterID)
		if err != nil {
			return err
		}

		for _, n := range candidates {
			there := geo.Point{Lat: n.Latitude, Lon: n.Longitude}
			if !geo.WithinRadius(here, there, e.cfg.ClusterRadiusMeters) {
				continue
			}
			out, err := e.linkNeighbor(tx, &report, n)
			if err != nil {
				return err
			}
			res.Neighbors = append(res.Neighbors, out)
			res.Awards = append(res.Awards, out.Awards...)
		}

		count, err := tx.CountVerifications(report.ID)
		if err != nil {
			return err
		}
		if count >= VerifyThreshold && report.Status == types.StatusUnverified {
			awards, err := e.promote(tx, report.ID)
			if err != nil {
				return err
			}
			report.Status = types.StatusVerified
			res.Awards = append(res.Awards, awards...)
		}

		res.Report = report
		res.VerificationCount = count
		res.Verified = report.Status == types.StatusVerified
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// linkNeighbor cross-verifies the new report and one nearby report: the new
// reporter corroborates the neighbor, and the neighbor's author corroborates
// the new report. An already-VERIFIED neighbor still collects the edge but
// is never promoted again.
func (e *Engine) linkNeighbor(tx Tx, report *types.Report, n types.Report) (NeighborOutcome, error) {
	out := NeighborOutcome{ReportID: n.ID, Kind: OutcomeSkipped}

	created, err := tx.RecordVerification(n.ID, report.ReporterID)
	if err != nil {
		return out, err
	}
	if created {
		out.Kind = OutcomeLinked
	}

	count, err := tx.CountVerifications(n.ID)
	if err != nil {
		return out, err
	}
	if count >= VerifyThreshold && n.Status == types.StatusUnverified {
		awards, err := e.promote(tx, n.ID)
		if err != nil {
			return out, err
		}
		out.Kind = OutcomeThresholdCrossed
		out.Awards = awards
	}

	// Symmetric edge: the neighbor's author vouches for the new report too.
	if _, err := tx.RecordVerification(report.ID, n.ReporterID); err != nil {
		return out, err
	}
	return out, nil
}

// promote flips a report to VERIFIED and pays every distinct verifier on
// record. AwardReputation dedupes per (report, verifier) pair, so a report
// reached from several triggering submissions never pays anyone twice.
func (e *Engine) promote(tx Tx, reportID string) ([]Award, error) {
	if err := tx.UpdateReportStatus(reportID, types.StatusVerified); err != nil {
		return nil, err
	}
	verifiers, err := tx.Verifiers(reportID)
	if err != nil {
		return nil, err
	}

	var awards []Award
	for _, v := range verifiers {
		awarded, err := tx.AwardReputation(reportID, v, e.cfg.PointsPerVerified)
		if err != nil {
			return nil, err
		}
		if awarded {
			awards = append(awards, Award{ReportID: reportID, VerifierID: v, Points: e.cfg.PointsPerVerified})
		}
	}
	return awards, nil
}
