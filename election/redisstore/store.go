// Package redisstore implements the election.LeaseStore contract on
// redis. Acquisition is a SETNX with TTL; renewal and release run as
// server-side scripts so the holder check and the write happen as one
// atomic unit.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/adaptive-architecture/go-coordination/election"
	"github.com/adaptive-architecture/go-coordination/log"
)

// renewScript extends the lease iff the stored record still names the
// caller as holder. ARGV[1] is the holder fragment, ARGV[2] the new
// record, ARGV[3] the TTL in milliseconds. Returns the new record, or
// nil when the caller is fenced out.
const renewScript = `
local current = redis.call('GET', KEYS[1])
if current and string.find(current, ARGV[1], 1, true) then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
  return ARGV[2]
end
return false
`

// releaseScript deletes the lease iff the stored record still names the
// caller as holder. ARGV[1] is the holder fragment. Returns 1 on
// deletion, 0 otherwise.
const releaseScript = `
local current = redis.call('GET', KEYS[1])
if current and string.find(current, ARGV[1], 1, true) then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`

// Store is a redis-backed lease store. Safe for concurrent use; the
// underlying client is shared and not closed by Close.
type Store struct {
	client  *goredis.Client
	prefix  string
	log     *log.Logger
	closed  atomic.Bool
	renew   *goredis.Script
	release *goredis.Script
}

// New creates a store over the given options.
func New(opts Options) (*Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{
		client:  opts.Client,
		prefix:  prefix,
		log:     log.Default().Module("redisstore"),
		renew:   goredis.NewScript(renewScript),
		release: goredis.NewScript(releaseScript),
	}, nil
}

// leaseKey returns the namespaced key for an election.
func (s *Store) leaseKey(election string) string {
	return s.prefix + ":lease:" + election
}

func (s *Store) check(electionName, participant string, needParticipant bool) error {
	if s.closed.Load() {
		return election.ErrStoreClosed
	}
	if strings.TrimSpace(electionName) == "" {
		return election.ErrEmptyElection
	}
	if needParticipant && strings.TrimSpace(participant) == "" {
		return election.ErrEmptyParticipant
	}
	return nil
}

// TryAcquire implements election.LeaseStore: a single SETNX with TTL.
func (s *Store) TryAcquire(ctx context.Context, electionName, participant string, duration time.Duration, metadata map[string]string) (*election.LeaderInfo, error) {
	if err := s.check(electionName, participant, true); err != nil {
		return nil, err
	}

	info := election.NewLeaderInfo(participant, time.Now().UTC(), duration, metadata)
	payload, err := election.EncodeLeaderInfo(info)
	if err != nil {
		return nil, err
	}

	ok, err := s.client.SetNX(ctx, s.leaseKey(electionName), payload, duration).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: acquire lease: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return info, nil
}

// TryRenew implements election.LeaseStore via the renewal script.
func (s *Store) TryRenew(ctx context.Context, electionName, participant string, duration time.Duration) (*election.LeaderInfo, error) {
	if err := s.check(electionName, participant, true); err != nil {
		return nil, err
	}

	fragment, err := election.HolderFragment(participant)
	if err != nil {
		return nil, err
	}
	info := election.NewLeaderInfo(participant, time.Now().UTC(), duration, nil)
	payload, err := election.EncodeLeaderInfo(info)
	if err != nil {
		return nil, err
	}

	result, err := s.renew.Run(ctx, s.client,
		[]string{s.leaseKey(electionName)},
		fragment, string(payload), duration.Milliseconds(),
	).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil // fenced: another participant holds the lease
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: renew lease: %w", err)
	}

	raw, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("redisstore: renew lease: unexpected reply %T", result)
	}
	return election.DecodeLeaderInfo([]byte(raw))
}

// Release implements election.LeaseStore via the release script.
// Transport errors are swallowed and reported as false: release is
// idempotent and must never fail a shutdown path.
func (s *Store) Release(ctx context.Context, electionName, participant string) (bool, error) {
	if err := s.check(electionName, participant, true); err != nil {
		return false, err
	}

	fragment, err := election.HolderFragment(participant)
	if err != nil {
		return false, err
	}

	result, err := s.release.Run(ctx, s.client,
		[]string{s.leaseKey(electionName)}, fragment,
	).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		s.log.Warn("lease release failed", "election", electionName, "err", err)
		return false, nil
	}

	n, ok := result.(int64)
	return ok && n == 1, nil
}

// GetCurrent implements election.LeaseStore. Records that outlived their
// expiry (TTL loss, clock skew) are deleted best-effort and read as
// absent.
func (s *Store) GetCurrent(ctx context.Context, electionName string) (*election.LeaderInfo, error) {
	if err := s.check(electionName, "", false); err != nil {
		return nil, err
	}

	key := s.leaseKey(electionName)
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: read lease: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	info, err := election.DecodeLeaderInfo([]byte(raw))
	if err != nil {
		return nil, err
	}
	if !info.IsValid(time.Now().UTC()) {
		if delErr := s.client.Del(ctx, key).Err(); delErr != nil {
			s.log.Warn("expired lease cleanup failed", "election", electionName, "err", delErr)
		}
		return nil, nil
	}
	return info, nil
}

// HasValid implements election.LeaseStore.
func (s *Store) HasValid(ctx context.Context, electionName string) (bool, error) {
	info, err := s.GetCurrent(ctx, electionName)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

// Close implements election.LeaseStore. Idempotent; the shared client is
// left open for its owner.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}
