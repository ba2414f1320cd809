package consensus

import (
	"context"
	"sync"
	"time"

	"github.com/wastewatch/wastewatch-api/src/api/geo"
	"github.com/wastewatch/wastewatch-api/src/api/types"
)

// memStore is an in-memory Store with no persistence technology behind it.
// One mutex serializes cascades; each Update runs against a deep copy that
// only replaces the live state on success, so an aborted cascade leaves
// nothing behind.
type memStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	reports       []*types.Report               // creation order
	verifications map[string]map[string]bool    // report id -> verifier ids
	fingerprints  map[string]string             // fingerprint -> uploader id
	awards        map[string]map[string]int64   // report id -> verifier id -> points
	scores        map[string]*types.ReputationScore
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		verifications: map[string]map[string]bool{},
		fingerprints:  map[string]string{},
		awards:        map[string]map[string]int64{},
		scores:        map[string]*types.ReputationScore{},
	}}
}

func (m *memStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	shadow := m.state.clone()
	if err := fn(&memTx{s: shadow}); err != nil {
		return err
	}
	m.state = shadow
	return nil
}

func (s *memState) clone() *memState {
	out := &memState{
		verifications: map[string]map[string]bool{},
		fingerprints:  map[string]string{},
		awards:        map[string]map[string]int64{},
		scores:        map[string]*types.ReputationScore{},
	}
	for _, r := range s.reports {
		cp := *r
		out.reports = append(out.reports, &cp)
	}
	for id, vs := range s.verifications {
		cp := map[string]bool{}
		for v := range vs {
			cp[v] = true
		}
		out.verifications[id] = cp
	}
	for fp, u := range s.fingerprints {
		out.fingerprints[fp] = u
	}
	for id, pairs := range s.awards {
		cp := map[string]int64{}
		for v, p := range pairs {
			cp[v] = p
		}
		out.awards[id] = cp
	}
	for u, sc := range s.scores {
		cp := *sc
		out.scores[u] = &cp
	}
	return out
}

type memTx struct{ s *memState }

func (t *memTx) CreateReport(r *types.Report) error {
	for _, existing := range t.s.reports {
		if existing.Fingerprint == r.Fingerprint {
			return ErrDuplicatePhoto
		}
	}
	cp := *r
	t.s.reports = append(t.s.reports, &cp)
	return nil
}

func (t *memTx) UpdateReportStatus(reportID, status string) error {
	for _, r := range t.s.reports {
		if r.ID == reportID {
			r.Status = status
			return nil
		}
	}
	return nil
}

func (t *memTx) ReportsNear(lat, lon, radiusMeters float64, excludeUser string) ([]types.Report, error) {
	minLat, maxLat, minLon, maxLon := geo.BoundingBox(geo.Point{Lat: lat, Lon: lon}, radiusMeters)
	var out []types.Report
	for _, r := range t.s.reports {
		if r.ReporterID == excludeUser {
			continue
		}
		if r.Latitude < minLat || r.Latitude > maxLat || r.Longitude < minLon || r.Longitude > maxLon {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (t *memTx) RecordVerification(reportID, verifierID string) (bool, error) {
	vs, ok := t.s.verifications[reportID]
	if !ok {
		vs = map[string]bool{}
		t.s.verifications[reportID] = vs
	}
	if vs[verifierID] {
		return false, nil
	}
	vs[verifierID] = true
	return true, nil
}

func (t *memTx) CountVerifications(reportID string) (int, error) {
	return len(t.s.verifications[reportID]), nil
}

func (t *memTx) Verifiers(reportID string) ([]string, error) {
	var out []string
	for v := range t.s.verifications[reportID] {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTx) RegisterFingerprint(fingerprint, uploaderID string) error {
	if _, dup := t.s.fingerprints[fingerprint]; dup {
		return ErrDuplicatePhoto
	}
	t.s.fingerprints[fingerprint] = uploaderID
	return nil
}

func (t *memTx) AwardReputation(reportID, verifierID string, points int64) (bool, error) {
	pairs, ok := t.s.awards[reportID]
	if !ok {
		pairs = map[string]int64{}
		t.s.awards[reportID] = pairs
	}
	if _, paid := pairs[verifierID]; paid {
		return false, nil
	}
	pairs[verifierID] = points

	sc, ok := t.s.scores[verifierID]
	if !ok {
		sc = &types.ReputationScore{UserID: verifierID}
		t.s.scores[verifierID] = sc
	}
	sc.TotalScore += points
	sc.VerifiedCredits++
	sc.UpdatedAt = time.Now().UTC()
	return true, nil
}

// Read helpers for assertions.

func (m *memStore) report(id string) *types.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.state.reports {
		if r.ID == id {
			cp := *r
			return &cp
		}
	}
	return nil
}

func (m *memStore) reportCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.reports)
}

func (m *memStore) verifierCount(reportID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.verifications[reportID])
}

func (m *memStore) awardTotal(reportID, verifierID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.awards[reportID][verifierID]
}

func (m *memStore) score(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sc, ok := m.state.scores[userID]; ok {
		return sc.TotalScore
	}
	return 0
}

// conflictStore fails the first n Updates with ErrConflict, then delegates.
type conflictStore struct {
	inner Store
	mu    sync.Mutex
	left  int
}

func (c *conflictStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	c.mu.Lock()
	fail := c.left > 0
	if fail {
		c.left--
	}
	c.mu.Unlock()
	if fail {
		return ErrConflict
	}
	return c.inner.Update(ctx, fn)
}
