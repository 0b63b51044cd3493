// Package election coordinates "one leader per named election" across
// processes using a shared lease store. A lease is a time-bounded claim on
// a named key identifying the current leader; only the holder can renew or
// release it. The Service type wraps a LeaseStore with a small state
// machine, renewal and retry timers, and leadership-change notifications.
package election

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Election errors.
var (
	// ErrEmptyElection is returned when an election name is empty or
	// whitespace-only.
	ErrEmptyElection = errors.New("election: election name must not be empty")

	// ErrEmptyParticipant is returned when a participant id is empty or
	// whitespace-only.
	ErrEmptyParticipant = errors.New("election: participant id must not be empty")

	// ErrNilStore is returned when a service or provider is constructed
	// without a lease store.
	ErrNilStore = errors.New("election: lease store must not be nil")

	// ErrStoreClosed is returned by lease store operations after Close.
	ErrStoreClosed = errors.New("election: lease store is closed")
)

// LeaderInfo is the lease record identifying the current leader of an
// election. The JSON field names are part of the wire contract: every
// store implementation round-trips records through EncodeLeaderInfo and
// DecodeLeaderInfo so holder checks compare like with like.
type LeaderInfo struct {
	ParticipantID string            `json:"ParticipantId"`
	AcquiredAt    time.Time         `json:"AcquiredAt"`
	ExpiresAt     time.Time         `json:"ExpiresAt"`
	Metadata      map[string]string `json:"Metadata,omitempty"`
}

// IsValid reports whether the lease is unexpired at now.
func (l *LeaderInfo) IsValid(now time.Time) bool {
	return l.ExpiresAt.After(now)
}

// TimeToExpiry returns how long the lease remains valid at now. Negative
// once expired.
func (l *LeaderInfo) TimeToExpiry(now time.Time) time.Duration {
	return l.ExpiresAt.Sub(now)
}

// Clone returns a deep copy of the record.
func (l *LeaderInfo) Clone() *LeaderInfo {
	if l == nil {
		return nil
	}
	out := *l
	if l.Metadata != nil {
		out.Metadata = make(map[string]string, len(l.Metadata))
		for k, v := range l.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// NewLeaderInfo builds a lease record for participant starting at now and
// expiring after duration.
func NewLeaderInfo(participant string, now time.Time, duration time.Duration, metadata map[string]string) *LeaderInfo {
	info := &LeaderInfo{
		ParticipantID: participant,
		AcquiredAt:    now,
		ExpiresAt:     now.Add(duration),
	}
	if len(metadata) > 0 {
		info.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			info.Metadata[k] = v
		}
	}
	return info
}

// EncodeLeaderInfo serializes a lease record to its JSON wire form.
func EncodeLeaderInfo(info *LeaderInfo) ([]byte, error) {
	if info == nil {
		return nil, fmt.Errorf("election: cannot encode nil lease record")
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("election: encode lease: %w", err)
	}
	return data, nil
}

// DecodeLeaderInfo deserializes a lease record from its JSON wire form.
func DecodeLeaderInfo(data []byte) (*LeaderInfo, error) {
	var info LeaderInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("election: decode lease: %w", err)
	}
	return &info, nil
}

// HolderFragment returns the serialized-form fragment that identifies
// participant as the record holder. Store implementations that check
// holdership inside a server-side script match on this substring; it is
// produced by the same encoder as the stored value.
func HolderFragment(participant string) (string, error) {
	field, err := json.Marshal(participant)
	if err != nil {
		return "", fmt.Errorf("election: encode participant id: %w", err)
	}
	return `"ParticipantId":` + string(field), nil
}
