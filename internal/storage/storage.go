package storage

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Kind names the engine that produced a stored result.
type Kind string

// Result kinds.
const (
	KindMarketState   Kind = "market_state"
	KindBehavior      Kind = "behavior"
	KindConsistency   Kind = "consistency"
	KindFlow          Kind = "flow"
	KindParticipation Kind = "participation"
	KindTraderScore   Kind = "trader_score"
	KindSignal        Kind = "best_bets"
)

// Record is one archived insight result.
type Record struct {
	ID         string
	Kind       Kind
	SubjectID  string
	Payload    json.RawMessage
	ComputedAt time.Time
}

// NewRecord encodes result as the payload of a fresh record.
func NewRecord(kind Kind, subjectID string, result interface{}, computedAt time.Time) (*Record, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal %s result: %w", kind, err)
	}

	return &Record{
		ID:         uuid.NewString(),
		Kind:       kind,
		SubjectID:  subjectID,
		Payload:    payload,
		ComputedAt: computedAt.UTC(),
	}, nil
}

// Storage is the interface for archiving insight results.
type Storage interface {
	// StoreResult stores one computed result.
	StoreResult(ctx context.Context, rec *Record) error

	// Close closes the storage connection.
	Close() error
}
