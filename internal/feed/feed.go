// Package feed maintains the recent-scans list shown on lecturer and admin
// dashboards. Slight staleness is fine here, so entries live in a capped
// Redis list written by the worker rather than in the ledger query path.
package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKey = "qrattend:recent"
	maxEntries = 50
)

// Entry is one redeemed claim enriched with the subject's directory profile.
type Entry struct {
	ClaimID         string    `json:"claim_id"`
	SubjectID       string    `json:"subject_id"`
	SubjectName     string    `json:"subject_name,omitempty"`
	AdmissionNumber string    `json:"admission_number,omitempty"`
	UnitCode        string    `json:"unit_code"`
	UnitName        string    `json:"unit_name"`
	IssuerID        string    `json:"issuer_id"`
	Location        string    `json:"location,omitempty"`
	Status          string    `json:"status"`
	ScannedAt       time.Time `json:"scanned_at"`
}

// Feed reads and writes the capped list.
type Feed struct {
	client *redis.Client
	key    string
}

// New creates a feed over the given redis client.
func New(client *redis.Client, key string) *Feed {
	if key == "" {
		key = defaultKey
	}
	return &Feed{client: client, key: key}
}

// Push prepends an entry and trims the list to its cap.
func (f *Feed) Push(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pipe := f.client.TxPipeline()
	pipe.LPush(ctx, f.key, raw)
	pipe.LTrim(ctx, f.key, 0, maxEntries-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit entries, newest first.
func (f *Feed) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > maxEntries {
		limit = maxEntries
	}
	raws, err := f.client.LRange(ctx, f.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
