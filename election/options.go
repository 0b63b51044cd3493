package election

import (
	"fmt"
	"time"
)

// Options holds the tunable knobs of an election service.
type Options struct {
	// LeaseDuration is the TTL requested on acquisition and renewal.
	LeaseDuration time.Duration
	// RenewalInterval is how often a leader renews its lease. Must be
	// shorter than LeaseDuration or the lease expires between renewals.
	RenewalInterval time.Duration
	// RetryInterval is how often a non-leader retries acquisition while
	// the continuous check runs.
	RetryInterval time.Duration
	// OperationTimeout bounds each individual store call.
	OperationTimeout time.Duration
	// Metadata is attached to every lease the service acquires.
	Metadata map[string]string
	// EnableContinuousCheck schedules background acquisition and renewal
	// when the service starts.
	EnableContinuousCheck bool
}

// DefaultOptions returns the standard election configuration.
func DefaultOptions() Options {
	return Options{
		LeaseDuration:         30 * time.Second,
		RenewalInterval:       10 * time.Second,
		RetryInterval:         5 * time.Second,
		OperationTimeout:      10 * time.Second,
		EnableContinuousCheck: true,
	}
}

// Validate checks the options for internal consistency.
func (o Options) Validate() error {
	if o.LeaseDuration <= 0 {
		return fmt.Errorf("election: lease duration must be positive, got %v", o.LeaseDuration)
	}
	if o.RenewalInterval <= 0 {
		return fmt.Errorf("election: renewal interval must be positive, got %v", o.RenewalInterval)
	}
	if o.RetryInterval <= 0 {
		return fmt.Errorf("election: retry interval must be positive, got %v", o.RetryInterval)
	}
	if o.OperationTimeout <= 0 {
		return fmt.Errorf("election: operation timeout must be positive, got %v", o.OperationTimeout)
	}
	if o.RenewalInterval >= o.LeaseDuration {
		return fmt.Errorf("election: renewal interval %v must be shorter than lease duration %v",
			o.RenewalInterval, o.LeaseDuration)
	}
	return nil
}
