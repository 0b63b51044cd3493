package hashring

import "fmt"

// HistoryPolicy controls what happens when a snapshot is created while the
// history is at capacity.
type HistoryPolicy int

const (
	// EvictOldest drops the oldest retained snapshot to make room.
	EvictOldest HistoryPolicy = iota
	// FailWhenFull refuses the new snapshot with a *HistoryLimitError,
	// leaving the history unchanged.
	FailWhenFull
)

// String returns a human-readable name for the policy.
func (p HistoryPolicy) String() string {
	switch p {
	case EvictOldest:
		return "evict-oldest"
	case FailWhenFull:
		return "fail-when-full"
	default:
		return "unknown"
	}
}

// Options configures a Ring.
type Options struct {
	// DefaultVirtualNodes is the virtual node count used by Add when no
	// explicit count is given.
	DefaultVirtualNodes int
	// MaxHistorySize bounds the number of retained configuration snapshots.
	MaxHistorySize int
	// HistoryPolicy selects the behavior when the history is full.
	HistoryPolicy HistoryPolicy
	// Algorithm is the hash strategy shared by the ring and every snapshot
	// it creates.
	Algorithm Hasher
}

// DefaultOptions returns the standard ring configuration: 42 virtual nodes
// per server, three retained snapshots evicting the oldest, SHA-1 hashing.
func DefaultOptions() Options {
	return Options{
		DefaultVirtualNodes: 42,
		MaxHistorySize:      3,
		HistoryPolicy:       EvictOldest,
		Algorithm:           SHA1{},
	}
}

// Validate checks the options for internal consistency.
func (o Options) Validate() error {
	if o.DefaultVirtualNodes <= 0 {
		return fmt.Errorf("%w: default is %d", ErrVirtualNodeCount, o.DefaultVirtualNodes)
	}
	if o.MaxHistorySize <= 0 {
		return fmt.Errorf("hashring: max history size must be positive, got %d", o.MaxHistorySize)
	}
	if o.HistoryPolicy != EvictOldest && o.HistoryPolicy != FailWhenFull {
		return fmt.Errorf("hashring: unknown history policy %d", o.HistoryPolicy)
	}
	if o.Algorithm == nil {
		return fmt.Errorf("hashring: hash algorithm must not be nil")
	}
	return nil
}
