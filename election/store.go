package election

import (
	"context"
	"strings"
	"time"
)

// LeaseStore is the storage contract behind an election: a key-value
// store with atomic conditional writes and TTL expiry. Implementations
// must guarantee that TryAcquire is a linearizable set-if-absent and that
// TryRenew and Release act only when the caller is the current holder.
//
// Transport errors propagate unchanged from TryAcquire, TryRenew,
// GetCurrent, and HasValid. Release swallows them and reports false:
// releasing must stay idempotent and non-fatal.
type LeaseStore interface {
	// TryAcquire claims the election lease for participant iff no lease
	// exists, with the given TTL. Returns the acquired record, or nil
	// when another participant holds the lease.
	TryAcquire(ctx context.Context, election, participant string, duration time.Duration, metadata map[string]string) (*LeaderInfo, error)

	// TryRenew extends the lease iff participant currently holds it.
	// Returns the renewed record, or nil when fenced out.
	TryRenew(ctx context.Context, election, participant string, duration time.Duration) (*LeaderInfo, error)

	// Release deletes the lease iff participant currently holds it.
	// Reports whether a lease was released.
	Release(ctx context.Context, election, participant string) (bool, error)

	// GetCurrent returns the current lease record, or nil when no valid
	// lease exists. Implementations delete expired records best-effort.
	GetCurrent(ctx context.Context, election string) (*LeaderInfo, error)

	// HasValid reports whether an unexpired lease exists.
	HasValid(ctx context.Context, election string) (bool, error)

	// Close releases store resources. Idempotent; afterwards every
	// operation fails with ErrStoreClosed.
	Close() error
}

// validateNames rejects blank election names and participant ids. The
// participant may be empty for read-side operations.
func validateNames(election, participant string, needParticipant bool) error {
	if strings.TrimSpace(election) == "" {
		return ErrEmptyElection
	}
	if needParticipant && strings.TrimSpace(participant) == "" {
		return ErrEmptyParticipant
	}
	return nil
}
