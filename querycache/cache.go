// Package querycache keeps the results of remote reads, refreshes them on a schedule and after
// invalidation, and applies concurrent refreshes in the order they were started.
package querycache

import (
	"context"
	"sync"
	"time"

	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Group names a family of queries invalidated together.
type Group string

const (
	GroupOwnedObjects  Group = "getOwnedObjects"
	GroupAllEvents     Group = "allEvents"
	GroupBalance       Group = "getBalance"
	GroupParticipation Group = "participation"
)

// Key identifies a cached query.
type Key struct {
	Group  Group
	Params string
}

func (k Key) String() string {
	if k.Params == "" {
		return string(k.Group)
	}
	return string(k.Group) + ":" + k.Params
}

// FetchFunc performs the remote read of a query.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Options configures a query.
//
// Fields:
// - StaleTime: how long a result stays fresh; zero makes every result stale immediately.
// - RefetchInterval: the polling period, zero disables polling.
type Options struct {
	StaleTime       time.Duration
	RefetchInterval time.Duration
}

// State is the lifecycle state of a query.
type State string

const (
	StateEmpty      State = "empty"
	StateFresh      State = "fresh"
	StateStale      State = "stale"
	StateRefetching State = "refetching"
)

// Status describes a query for diagnostics.
type Status struct {
	Key       Key
	State     State
	UpdatedAt time.Time
	Seq       uint64
	Err       error
}

type entry struct {
	key     Key
	fetch   FetchFunc
	options Options
	jobID   uuid.UUID

	data        interface{}
	hasData     bool
	updatedAt   time.Time
	lastErr     error
	invalidated bool

	// seq is the last issued sequence number, applied the one of the current data.
	seq      uint64
	applied  uint64
	inFlight int
	pending  bool
}

// Cache is the query coordinator.
type Cache struct {
	clock     clockwork.Clock
	logger    *logrus.Logger
	scheduler gocron.Scheduler

	mu      sync.Mutex
	entries map[Key]*entry
	ctx     context.Context
	wg      sync.WaitGroup
	stopped bool
}

// NewCache creates a cache whose polling jobs run on clock.
//
// Parameters:
// - clock: the clock for staleness, polling and settle delays; nil uses the real clock.
// - logger: the logger for background refresh failures.
//
// Returns:
// - *Cache: the cache, not polling until Start.
// - error: an error if the scheduler cannot be created.
func NewCache(clock clockwork.Clock, logger *logrus.Logger) (*Cache, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	scheduler, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create scheduler")
	}
	return &Cache{
		clock:     clock,
		logger:    logger,
		scheduler: scheduler,
		entries:   make(map[Key]*entry),
		ctx:       context.Background(),
	}, nil
}

// Register adds a query, replacing the fetch function and options of an existing one. Cached data
// of a replaced query is kept but marked stale.
//
// Parameters:
// - key: the query key.
// - fetch: the remote read.
// - options: staleness and polling.
//
// Returns:
// - error: an error if the polling job cannot be scheduled.
func (c *Cache) Register(key Key, fetch FetchFunc, options Options) error {
	if fetch == nil {
		return errors.Errorf("query %s: fetch is nil", key)
	}

	c.mu.Lock()
	e, exists := c.entries[key]
	if !exists {
		e = &entry{key: key}
		c.entries[key] = e
	} else {
		e.invalidated = true
	}
	oldJob := e.jobID
	e.fetch = fetch
	e.options = options
	e.jobID = uuid.Nil
	c.mu.Unlock()

	if oldJob != uuid.Nil {
		_ = c.scheduler.RemoveJob(oldJob)
	}
	if options.RefetchInterval <= 0 {
		return nil
	}

	job, err := c.scheduler.NewJob(
		gocron.DurationJob(options.RefetchInterval),
		gocron.NewTask(c.tick, key),
		gocron.WithName(key.String()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to schedule %s", key)
	}

	c.mu.Lock()
	if current, ok := c.entries[key]; ok && current == e {
		e.jobID = job.ID()
	}
	c.mu.Unlock()

	return nil
}

// Unregister removes a query and its polling job.
func (c *Cache) Unregister(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if ok && e.jobID != uuid.Nil {
		_ = c.scheduler.RemoveJob(e.jobID)
	}
}

// Registered reports whether a query is registered.
func (c *Cache) Registered(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Read returns the cached data of a query. Without data it fetches synchronously; with stale data it
// starts a background refresh and returns the current data.
//
// Parameters:
// - ctx: the context of a synchronous fetch.
// - key: the query key.
//
// Returns:
// - interface{}: the data.
// - error: ErrUnknownQuery, or the error of a synchronous fetch.
func (c *Cache) Read(ctx context.Context, key Key) (interface{}, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return nil, errors.Wrapf(commonErrors.ErrUnknownQuery, "%s", key)
	}
	if !e.hasData {
		c.mu.Unlock()
		return c.Refetch(ctx, key)
	}
	data := e.data
	refresh := c.isStale(e) && e.inFlight == 0
	c.mu.Unlock()

	if refresh {
		c.refetchInBackground(key)
	}
	return data, nil
}

// Refetch starts a new fetch of a query and waits for it. Concurrent refetches all run; a result is
// applied only if no refetch started later has been applied already.
//
// Parameters:
// - ctx: the context of the fetch.
// - key: the query key.
//
// Returns:
// - interface{}: the data applied once this fetch settled.
// - error: ErrUnknownQuery, or the fetch error.
func (c *Cache) Refetch(ctx context.Context, key Key) (interface{}, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return nil, errors.Wrapf(commonErrors.ErrUnknownQuery, "%s", key)
	}
	e.seq++
	seq := e.seq
	e.inFlight++
	fetch := e.fetch
	c.mu.Unlock()

	data, err := fetch(ctx)

	c.mu.Lock()
	e.inFlight--
	applied := false
	if err == nil && seq >= e.applied {
		e.data = data
		e.hasData = true
		e.applied = seq
		e.updatedAt = c.clock.Now()
		e.lastErr = nil
		e.invalidated = false
		applied = true
	} else if err != nil && seq >= e.applied {
		e.lastErr = err
	}
	current := e.data
	again := e.inFlight == 0 && e.pending
	if again {
		e.pending = false
	}
	c.mu.Unlock()

	fields := logrus.Fields{"key": key.String(), "seq": seq}
	switch {
	case err != nil:
		fields["error"] = err
		c.logger.WithFields(fields).Warn("Query refetch failed")
	case !applied:
		c.logger.WithFields(fields).Debug("Discarding superseded query result")
	default:
		c.logger.WithFields(fields).Debug("Query refetched")
	}

	if again {
		c.refetchInBackground(key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", key)
	}
	return current, nil
}

// Invalidate marks every query of the groups stale. An idle query starts a refetch; a query with a
// refetch in flight gets exactly one more refetch once the in-flight ones settle.
func (c *Cache) Invalidate(groups ...Group) {
	var idle []Key

	c.mu.Lock()
	for key, e := range c.entries {
		if !inGroups(key.Group, groups) {
			continue
		}
		e.invalidated = true
		if e.inFlight == 0 {
			idle = append(idle, key)
		} else {
			e.pending = true
		}
	}
	c.mu.Unlock()

	for _, key := range idle {
		c.refetchInBackground(key)
	}
}

// RefetchGroupsAfter waits delay, then refetches every query of the groups and waits for them.
//
// Parameters:
// - ctx: the context of the wait and the fetches.
// - delay: the settle delay.
// - groups: the groups to refetch.
//
// Returns:
// - error: the context error, or the first fetch error.
func (c *Cache) RefetchGroupsAfter(ctx context.Context, delay time.Duration, groups ...Group) error {
	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(delay):
		}
	}

	var group errgroup.Group
	for _, key := range c.Keys(groups...) {
		key := key
		group.Go(func() error {
			_, err := c.Refetch(ctx, key)
			return err
		})
	}
	return group.Wait()
}

// Keys returns the registered keys of the groups, or every key when no group is given.
func (c *Cache) Keys(groups ...Group) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []Key
	for key := range c.entries {
		if len(groups) == 0 || inGroups(key.Group, groups) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Status returns the state of a query.
func (c *Cache) Status(key Key) (Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Status{}, false
	}

	status := Status{Key: key, UpdatedAt: e.updatedAt, Seq: e.applied, Err: e.lastErr}
	switch {
	case e.inFlight > 0:
		status.State = StateRefetching
	case !e.hasData:
		status.State = StateEmpty
	case c.isStale(e):
		status.State = StateStale
	default:
		status.State = StateFresh
	}
	return status, true
}

// Start starts polling. Background refreshes use ctx from now on.
func (c *Cache) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	c.scheduler.Start()
}

// Stop stops polling and waits for background refreshes.
func (c *Cache) Stop() error {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()

	err := c.scheduler.Shutdown()
	c.wg.Wait()
	return errors.Wrap(err, "failed to stop scheduler")
}

// tick is the polling task: it refetches the query whenever no refetch is in flight. Staleness only
// governs Read.
func (c *Cache) tick(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	due := ok && e.inFlight == 0 && !c.stopped
	ctx := c.ctx
	c.mu.Unlock()

	if due {
		_, _ = c.Refetch(ctx, key)
	}
}

// refetchInBackground starts a refetch tracked by Stop; it does nothing once Stop was called.
func (c *Cache) refetchInBackground(key Key) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	ctx := c.ctx
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		_, _ = c.Refetch(ctx, key)
	}()
}

// isStale reports whether e needs a refetch. Callers hold c.mu.
func (c *Cache) isStale(e *entry) bool {
	if !e.hasData || e.invalidated {
		return true
	}
	return c.clock.Since(e.updatedAt) >= e.options.StaleTime
}

func inGroups(group Group, groups []Group) bool {
	for _, g := range groups {
		if g == group {
			return true
		}
	}
	return false
}
