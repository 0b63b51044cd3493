package election

import (
	"context"
	"sync"
	"time"

	"github.com/adaptive-architecture/go-coordination/log"
	"github.com/adaptive-architecture/go-coordination/metrics"
)

// Ambient instrumentation shared by all services in the process.
var (
	acquireCount   = metrics.NewCounter("election.acquisitions")
	renewCount     = metrics.NewCounter("election.renewals")
	changeCount    = metrics.NewCounter("election.leadership_changes")
	leaderGauge    = metrics.NewGauge("election.leaders")
	acquireLatency = metrics.NewHistogram("election.acquire_ms")
)

// State is the lifecycle state of a Service.
type State int

const (
	StateIdle    State = iota // constructed, background check not running
	StateRunning              // background acquisition/renewal running
	StateStopped              // stopped; background work will not resume
)

// String returns a human-readable name for the service state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Service campaigns for leadership of one named election on behalf of one
// participant. Acquisition and release can be driven manually, or Start
// schedules them continuously: retrying at RetryInterval while not
// leader, renewing at RenewalInterval while leader.
//
// The service guards its own view of leadership under a short mutex; the
// underlying store handle is shared and assumed safe for concurrent use.
type Service struct {
	electionName  string
	participantID string
	opts          Options
	store         LeaseStore
	log           *log.Logger
	notifier      *notifier

	mu       sync.Mutex
	state    State
	isLeader bool
	current  *LeaderInfo
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewService creates a service with DefaultOptions.
func NewService(store LeaseStore, electionName, participantID string) (*Service, error) {
	return NewServiceWithOptions(store, electionName, participantID, DefaultOptions())
}

// NewServiceWithOptions creates a service for the given election and
// participant. The election name and participant id must be non-blank.
func NewServiceWithOptions(store LeaseStore, electionName, participantID string, opts Options) (*Service, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := validateNames(electionName, participantID, true); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		electionName:  electionName,
		participantID: participantID,
		opts:          opts,
		store:         store,
		log: log.Default().Module("election").With(
			"election", electionName,
			"participant", participantID,
		),
		notifier: newNotifier(),
	}, nil
}

// ElectionName returns the election this service campaigns in.
func (s *Service) ElectionName() string { return s.electionName }

// ParticipantID returns this service's participant identity.
func (s *Service) ParticipantID() string { return s.participantID }

// IsLeader reports whether this service currently believes it holds the
// lease.
func (s *Service) IsLeader() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLeader
}

// CurrentLeader returns the most recently observed lease record: this
// service's own lease while leader, the winning participant's after a
// failed acquisition. Nil when no leader has been observed.
func (s *Service) CurrentLeader() *LeaderInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// State returns the lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnLeadershipChanged registers a handler for leadership transitions and
// returns a function that unregisters it. Events for one service arrive
// in strict order: a gain always precedes the loss that follows it.
func (s *Service) OnLeadershipChanged(h LeadershipHandler) func() {
	return s.notifier.subscribe(h)
}

// TryAcquireLeadership attempts to take the lease once. On success the
// service becomes leader and, unless it already considered itself leader,
// a gained event fires. On failure the
// existing lease (if any) is read to populate CurrentLeader and no event
// fires.
func (s *Service) TryAcquireLeadership(ctx context.Context) (bool, error) {
	timer := metrics.NewTimer(acquireLatency)
	defer timer.Stop()

	opCtx, cancel := context.WithTimeout(ctx, s.opts.OperationTimeout)
	defer cancel()

	info, err := s.store.TryAcquire(opCtx, s.electionName, s.participantID, s.opts.LeaseDuration, s.opts.Metadata)
	if err != nil {
		return false, err
	}
	if info != nil {
		acquireCount.Inc()
		s.mu.Lock()
		wasLeader := s.isLeader
		s.isLeader = true
		s.current = info
		s.mu.Unlock()

		if !wasLeader {
			s.log.Info("leadership acquired", "expires_at", info.ExpiresAt)
			s.emitChange(true, info)
		}
		return true, nil
	}

	// Lost the race: surface who holds the lease.
	existing, err := s.store.GetCurrent(opCtx, s.electionName)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	s.current = existing
	s.mu.Unlock()
	return false, nil
}

// ReleaseLeadership gives up the lease. Only acts while leader: releasing
// an unheld lease is a silent no-op. On successful release the service
// clears its leader state and a lost event fires.
func (s *Service) ReleaseLeadership(ctx context.Context) error {
	s.mu.Lock()
	if !s.isLeader {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, s.opts.OperationTimeout)
	defer cancel()

	released, err := s.store.Release(opCtx, s.electionName, s.participantID)
	if err != nil {
		return err
	}
	if !released {
		return nil
	}

	s.mu.Lock()
	wasLeader := s.isLeader
	s.isLeader = false
	s.current = nil
	s.mu.Unlock()

	if wasLeader {
		s.log.Info("leadership released")
		s.emitChange(false, nil)
	}
	return nil
}

// Start begins the continuous check: periodic acquisition attempts while
// not leader and periodic renewal while leader. Idempotent; a second call
// is a no-op, as is any call after Stop. When the continuous check is
// disabled, Start only moves the service to StateRunning and schedules
// nothing.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return nil
	}
	s.state = StateRunning
	if !s.opts.EnableContinuousCheck {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx, s.done)
	s.log.Debug("continuous leadership check started",
		"retry_interval", s.opts.RetryInterval,
		"renewal_interval", s.opts.RenewalInterval,
	)
	return nil
}

// Stop cancels the background check, releases leadership if held, and
// marks the service stopped. Safe to call multiple times.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopped
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return s.ReleaseLeadership(ctx)
}

// Close stops the service. It tolerates double close.
func (s *Service) Close() error {
	return s.Stop(context.Background())
}

// run is the continuous check loop. It wakes at the renewal cadence while
// leader and at the retry cadence otherwise; each wake performs one
// renewal or one acquisition attempt, bounded by OperationTimeout.
func (s *Service) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		interval := s.opts.RetryInterval
		if s.IsLeader() {
			interval = s.opts.RenewalInterval
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if s.IsLeader() {
			s.renew(ctx)
		} else {
			if _, err := s.TryAcquireLeadership(ctx); err != nil {
				s.log.Warn("leadership acquisition attempt failed", "err", err)
			}
		}
	}
}

// renew extends the lease while leader. A fenced renewal (another
// participant took the lease, or it expired) demotes the service and
// fires a lost event; transport errors keep the current state and retry
// on the next tick.
func (s *Service) renew(ctx context.Context) {
	opCtx, cancel := context.WithTimeout(ctx, s.opts.OperationTimeout)
	defer cancel()

	info, err := s.store.TryRenew(opCtx, s.electionName, s.participantID, s.opts.LeaseDuration)
	if err != nil {
		s.log.Warn("lease renewal failed", "err", err)
		return
	}
	if info == nil {
		s.mu.Lock()
		wasLeader := s.isLeader
		s.isLeader = false
		s.current = nil
		s.mu.Unlock()

		if wasLeader {
			s.log.Warn("leadership lost: lease renewal was fenced")
			s.emitChange(false, nil)
		}
		return
	}

	renewCount.Inc()
	s.mu.Lock()
	s.current = info
	s.mu.Unlock()
	s.log.Debug("lease renewed", "expires_at", info.ExpiresAt)
}

// emitChange notifies subscribers of a gain or loss. Called with the
// state mutex released.
func (s *Service) emitChange(gained bool, leader *LeaderInfo) {
	changeCount.Inc()
	if gained {
		leaderGauge.Inc()
	} else {
		leaderGauge.Dec()
	}
	s.notifier.emit(LeadershipChange{
		ElectionName:  s.electionName,
		ParticipantID: s.participantID,
		IsLeader:      gained,
		Gained:        gained,
		Lost:          !gained,
		Leader:        leader.Clone(),
	})
}
