package attendance

import (
	"context"
	"sort"
)

// Aggregator derives per-unit statistics from the claim ledger. It is
// read-only and tolerates slightly stale data, so it can run against a read
// replica.
type Aggregator struct {
	store Store
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// SummarizeSubject groups one student's claims by unit. The denominator is
// the student's own claim count per unit, matching their dashboard view.
func (a *Aggregator) SummarizeSubject(ctx context.Context, subjectID string) ([]Summary, error) {
	claims, err := a.store.ClaimsBySubject(ctx, subjectID, "", 0)
	if err != nil {
		return nil, err
	}
	return rollup(claims, nil), nil
}

// SummarizeIssuer groups claims against one issuer's sessions by unit.
// TotalSessions counts every session the issuer ever opened for the unit,
// including ones nobody scanned, so consumers can compute absence-aware
// rates; Percentage itself stays the present-share of recorded claims.
func (a *Aggregator) SummarizeIssuer(ctx context.Context, issuerID string) ([]Summary, error) {
	claims, err := a.store.ClaimsByIssuer(ctx, issuerID, 0)
	if err != nil {
		return nil, err
	}
	sessions, err := a.store.SessionCountsByIssuer(ctx, issuerID)
	if err != nil {
		return nil, err
	}
	return rollup(claims, sessions), nil
}

// SummarizeGlobal returns whole-store totals plus a per-unit breakdown.
func (a *Aggregator) SummarizeGlobal(ctx context.Context) (Stats, error) {
	totalSessions, err := a.store.CountSessions(ctx)
	if err != nil {
		return Stats{}, err
	}
	totalClaims, err := a.store.CountClaims(ctx)
	if err != nil {
		return Stats{}, err
	}
	claims, err := a.store.AllClaims(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalSessions: totalSessions,
		TotalClaims:   totalClaims,
		Units:         rollup(claims, nil),
	}, nil
}

// rollup groups claims by unit code. sessionCounts, when present, fills
// TotalSessions for units that issued sessions, claimed or not.
func rollup(claims []Claim, sessionCounts map[string]int) []Summary {
	byUnit := make(map[string]*Summary)
	for _, c := range claims {
		s, ok := byUnit[c.UnitCode]
		if !ok {
			s = &Summary{UnitCode: c.UnitCode, UnitName: c.UnitName}
			byUnit[c.UnitCode] = s
		}
		s.TotalClaims++
		if c.Status == StatusPresent {
			s.Attended++
		}
	}
	for code, n := range sessionCounts {
		s, ok := byUnit[code]
		if !ok {
			s = &Summary{UnitCode: code}
			byUnit[code] = s
		}
		s.TotalSessions = n
	}

	res := make([]Summary, 0, len(byUnit))
	for _, s := range byUnit {
		// Guard the empty-unit case instead of dividing by zero.
		if s.TotalClaims > 0 {
			s.Percentage = float64(s.Attended) / float64(s.TotalClaims) * 100
		}
		res = append(res, *s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UnitCode < res[j].UnitCode })
	return res
}
