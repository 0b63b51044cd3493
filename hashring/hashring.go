// Package hashring implements a consistent hash ring with versioned
// configuration snapshots. Servers contribute a configurable number of
// virtual nodes to the ring; lookups route keys to servers by hashing the
// key onto the ring and walking clockwise. Lookups read exclusively from
// immutable snapshots, so routing stays stable while the live ring
// mutates; publishing a new snapshot is an explicit step.
package hashring

import (
	"fmt"
	"sync"
	"time"

	"github.com/adaptive-architecture/go-coordination/log"
	"github.com/adaptive-architecture/go-coordination/metrics"
)

// Ambient instrumentation shared by all rings in the process.
var (
	lookupCount   = metrics.NewCounter("hashring.lookups")
	snapshotCount = metrics.NewCounter("hashring.snapshots")
	serverGauge   = metrics.NewGauge("hashring.servers")
	snapshotSize  = metrics.NewHistogram("hashring.snapshot_nodes")
)

// Assignment pairs a server with an explicit virtual node count for batch
// insertion.
type Assignment[S comparable] struct {
	Server       S
	VirtualNodes int
}

// ServerStats reports the virtual node contribution of one server.
type ServerStats[S comparable] struct {
	Server       S
	VirtualNodes int
}

// ringEntry tracks one live server and its virtual nodes.
type ringEntry[S comparable] struct {
	server S
	nodes  []VirtualNode[S]
}

// Ring is a live, mutable consistent hash ring, generic over a comparable
// server type with a stable textual form (see Add). Reads and writes are
// safe for concurrent use: mutations serialize on a write lock, lookups
// take only a read lock to borrow the snapshot history.
type Ring[S comparable] struct {
	mu      sync.RWMutex
	opts    Options
	log     *log.Logger
	entries map[string]*ringEntry[S]
	order   []string // server keys in insertion order, for stable hash ties
	total   int
	hist    history[S]
}

// New creates a ring with DefaultOptions.
func New[S comparable]() *Ring[S] {
	r, _ := NewWithOptions[S](DefaultOptions())
	return r
}

// NewWithAlgorithm creates a ring with DefaultOptions and the given hash
// algorithm.
func NewWithAlgorithm[S comparable](h Hasher) (*Ring[S], error) {
	opts := DefaultOptions()
	opts.Algorithm = h
	return NewWithOptions[S](opts)
}

// NewWithOptions creates a ring with the given options.
func NewWithOptions[S comparable](opts Options) (*Ring[S], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Ring[S]{
		opts:    opts,
		log:     log.Default().Module("hashring"),
		entries: make(map[string]*ringEntry[S]),
		hist: history[S]{
			max:    opts.MaxHistorySize,
			policy: opts.HistoryPolicy,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// Add places server on the ring with the default virtual node count.
// Adding a server that is already present replaces its previous placement.
// The server's stable textual form (fmt.Stringer when implemented, the Go
// value form otherwise) identifies it and seeds its virtual node hashes.
func (r *Ring[S]) Add(server S) error {
	return r.AddWithCount(server, r.opts.DefaultVirtualNodes)
}

// AddWithCount places server on the ring with an explicit virtual node
// count. The count must be positive.
func (r *Ring[S]) AddWithCount(server S, virtualNodes int) error {
	if isNilServer(server) {
		return ErrNilServer
	}
	if virtualNodes <= 0 {
		return fmt.Errorf("%w: %d", ErrVirtualNodeCount, virtualNodes)
	}
	nodes, err := placeVirtualNodes(r.opts.Algorithm, server, virtualNodes)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.install(serverKey(server), server, nodes)
	return nil
}

// AddRange places every server in the batch with the default virtual node
// count. The batch is applied atomically: concurrent readers observe the
// ring either before or after the whole batch, and any validation error
// leaves the ring unchanged.
func (r *Ring[S]) AddRange(servers []S) error {
	if servers == nil {
		return ErrNilCollection
	}
	assignments := make([]Assignment[S], len(servers))
	for i, s := range servers {
		assignments[i] = Assignment[S]{Server: s, VirtualNodes: r.opts.DefaultVirtualNodes}
	}
	return r.AddAssignments(assignments)
}

// AddAssignments places every (server, count) pair atomically. Any nil
// server or non-positive count fails the whole batch with the ring
// unchanged. A server appearing twice keeps its last assignment.
func (r *Ring[S]) AddAssignments(assignments []Assignment[S]) error {
	if assignments == nil {
		return ErrNilCollection
	}
	// Build the shadow placement before taking the write lock so the swap
	// below is all-or-nothing.
	type staged struct {
		key    string
		server S
		nodes  []VirtualNode[S]
	}
	batch := make([]staged, 0, len(assignments))
	for _, a := range assignments {
		if isNilServer(a.Server) {
			return ErrNilServer
		}
		if a.VirtualNodes <= 0 {
			return fmt.Errorf("%w: %d", ErrVirtualNodeCount, a.VirtualNodes)
		}
		nodes, err := placeVirtualNodes(r.opts.Algorithm, a.Server, a.VirtualNodes)
		if err != nil {
			return err
		}
		batch = append(batch, staged{key: serverKey(a.Server), server: a.Server, nodes: nodes})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range batch {
		r.install(s.key, s.server, s.nodes)
	}
	return nil
}

// install places or replaces one server. Caller holds the write lock.
func (r *Ring[S]) install(key string, server S, nodes []VirtualNode[S]) {
	if prev, ok := r.entries[key]; ok {
		r.total -= len(prev.nodes)
	} else {
		r.order = append(r.order, key)
		serverGauge.Inc()
	}
	r.entries[key] = &ringEntry[S]{server: server, nodes: nodes}
	r.total += len(nodes)
}

// Remove takes server off the ring, destroying its virtual nodes. Reports
// whether the server was present. Published snapshots are unaffected.
func (r *Ring[S]) Remove(server S) (bool, error) {
	if isNilServer(server) {
		return false, ErrNilServer
	}
	key := serverKey(server)

	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[key]
	if !ok {
		return false, nil
	}
	r.total -= len(entry.nodes)
	delete(r.entries, key)
	serverGauge.Dec()
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// RemoveRange removes every present server in the batch and returns how
// many were removed.
func (r *Ring[S]) RemoveRange(servers []S) (int, error) {
	if servers == nil {
		return 0, ErrNilCollection
	}
	for _, s := range servers {
		if isNilServer(s) {
			return 0, ErrNilServer
		}
	}

	removed := 0
	for _, s := range servers {
		ok, err := r.Remove(s)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// Contains reports whether server is on the live ring.
func (r *Ring[S]) Contains(server S) (bool, error) {
	if isNilServer(server) {
		return false, ErrNilServer
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[serverKey(server)]
	return ok, nil
}

// Clear drops every server from the live ring. The snapshot history is
// untouched; lookups keep routing against retained snapshots.
func (r *Ring[S]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	serverGauge.Add(-int64(len(r.entries)))
	r.entries = make(map[string]*ringEntry[S])
	r.order = nil
	r.total = 0
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

// CreateSnapshot publishes an immutable snapshot of the current membership
// and virtual node placement into the history, and returns it. An empty
// ring yields a legal empty snapshot. When the history is at capacity the
// configured policy applies: EvictOldest drops the oldest snapshot,
// FailWhenFull returns a *HistoryLimitError with the history unchanged.
func (r *Ring[S]) CreateSnapshot() (*Snapshot[S], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	servers := make([]S, 0, len(r.order))
	nodes := make([]VirtualNode[S], 0, r.total)
	// Walk in insertion order so equal hashes tie-break stably below.
	for _, key := range r.order {
		entry := r.entries[key]
		servers = append(servers, entry.server)
		nodes = append(nodes, entry.nodes...)
	}
	sortVirtualNodes(nodes)

	snap := &Snapshot[S]{
		servers:      servers,
		virtualNodes: nodes,
		createdAt:    time.Now(),
		algorithm:    r.opts.Algorithm,
	}
	if err := r.hist.add(snap); err != nil {
		return nil, err
	}
	snapshotCount.Inc()
	snapshotSize.Observe(float64(len(nodes)))
	r.log.Debug("snapshot created",
		"servers", len(servers),
		"virtual_nodes", len(nodes),
		"history", r.hist.count(),
	)
	return snap, nil
}

// ClearHistory drops every retained snapshot. Lookups fail with
// ErrNoSnapshots until a new snapshot is created.
func (r *Ring[S]) ClearHistory() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hist.clear()
}

// LatestSnapshot returns the most recently published snapshot, if any.
func (r *Ring[S]) LatestSnapshot() (*Snapshot[S], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.hist.count() == 0 {
		return nil, false
	}
	return r.hist.snapshots[r.hist.count()-1], true
}

// ---------------------------------------------------------------------------
// Lookups (snapshot-only)
// ---------------------------------------------------------------------------

// GetServer returns the server owning the byte key. Lookups read only
// published snapshots, newest first; mutations since the last snapshot are
// invisible. Fails with ErrNoSnapshots when no usable snapshot exists.
func (r *Ring[S]) GetServer(key []byte) (S, error) {
	var zero S
	if key == nil {
		return zero, ErrNilKey
	}
	lookupCount.Inc()

	for _, snap := range r.borrowSnapshots() {
		if snap.IsEmpty() {
			continue
		}
		return snap.Server(key)
	}
	return zero, ErrNoSnapshots
}

// TryGetServer is GetServer without an error path for missing or empty
// snapshots: the second result reports whether a server was found.
func (r *Ring[S]) TryGetServer(key []byte) (S, bool) {
	server, err := r.GetServer(key)
	if err != nil {
		var zero S
		return zero, false
	}
	return server, true
}

// GetServers returns up to count distinct servers for the key, walking the
// ring clockwise from the key's position. count zero yields an empty
// result; a negative count is an error. The result is deterministic for a
// given (snapshot, key, count).
func (r *Ring[S]) GetServers(key []byte, count int) ([]S, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	if count < 0 {
		return nil, ErrNegativeCount
	}
	if count == 0 {
		return []S{}, nil
	}
	lookupCount.Inc()

	for _, snap := range r.borrowSnapshots() {
		if snap.IsEmpty() {
			continue
		}
		return snap.Candidates(key, count)
	}
	return nil, ErrNoSnapshots
}

// borrowSnapshots returns the snapshot history newest first. Only the
// slice is copied under the read lock; snapshots are immutable.
func (r *Ring[S]) borrowSnapshots() []*Snapshot[S] {
	r.mu.RLock()
	snaps := r.hist.list()
	r.mu.RUnlock()
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Servers returns the live membership in insertion order.
func (r *Ring[S]) Servers() []S {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]S, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key].server)
	}
	return out
}

// VirtualNodeCount returns the total number of virtual nodes on the live
// ring, the sum over all servers.
func (r *Ring[S]) VirtualNodeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// IsEmpty reports whether the live ring has no servers.
func (r *Ring[S]) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries) == 0
}

// HistoryCount returns the number of retained snapshots.
func (r *Ring[S]) HistoryCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hist.count()
}

// MaxHistorySize returns the configured history capacity.
func (r *Ring[S]) MaxHistorySize() int { return r.opts.MaxHistorySize }

// Stats returns the per-server virtual node counts, in insertion order.
func (r *Ring[S]) Stats() []ServerStats[S] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := make([]ServerStats[S], 0, len(r.order))
	for _, key := range r.order {
		entry := r.entries[key]
		stats = append(stats, ServerStats[S]{Server: entry.server, VirtualNodes: len(entry.nodes)})
	}
	return stats
}
