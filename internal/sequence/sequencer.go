// Package sequence allocates the human-readable transaction identifiers
// printed on receipts and echoed through the payment provider. The format
// S{stall rank:2}{daily sequence:3} is an external contract.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownStall = errors.New("stall does not exist")
	// ErrDailyLimit rejects the 1000th order of a stall's day outright; the
	// three-digit sequence is never silently truncated.
	ErrDailyLimit = errors.New("stall reached its daily order limit")
	// ErrRankOverflow guards the two-digit stall rank the same way.
	ErrRankOverflow = errors.New("stall rank exceeds identifier format")
)

const (
	maxDailySeq  = 999
	maxStallRank = 99
)

// Store provides the two lookups behind an allocation. NextDailySeq must be
// atomic: concurrent calls for the same stall and day serialize on the
// counter row and never observe a stale count.
type Store interface {
	StallRank(ctx context.Context, stallID int64) (int, error)
	NextDailySeq(ctx context.Context, stallID int64, day time.Time) (int, error)
}

type Sequencer struct {
	store Store
}

func New(store Store) *Sequencer {
	return &Sequencer{store: store}
}

// Next allocates the transaction id for a new order at the given stall.
// The counter advance is durable even if the caller's checkout later fails,
// so sequences may have gaps; uniqueness, not density, is the guarantee.
func (s *Sequencer) Next(ctx context.Context, stallID int64, now time.Time) (string, error) {
	rank, err := s.store.StallRank(ctx, stallID)
	if err != nil {
		return "", fmt.Errorf("resolve stall rank: %w", err)
	}
	if rank == 0 {
		return "", ErrUnknownStall
	}
	if rank > maxStallRank {
		return "", fmt.Errorf("%w: rank %d", ErrRankOverflow, rank)
	}

	seq, err := s.store.NextDailySeq(ctx, stallID, now)
	if err != nil {
		return "", fmt.Errorf("advance daily sequence: %w", err)
	}
	if seq > maxDailySeq {
		return "", fmt.Errorf("%w: sequence %d", ErrDailyLimit, seq)
	}

	return fmt.Sprintf("S%02d%03d", rank, seq), nil
}
