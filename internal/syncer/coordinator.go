package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultDebounceDelay is how long the plan must stay quiet before a
	// debounced save fires.
	DefaultDebounceDelay = 10 * time.Second
	// DefaultSaveCooldown skips save attempts landing within this window
	// of the previous successful save, absorbing rapid toggle bursts.
	DefaultSaveCooldown = 5 * time.Second
)

// SaveResult is the remote store's acknowledgement of a persisted plan.
type SaveResult struct {
	PlanID  string
	Version int
}

// LoadedPlan is a plan fetched from the remote store.
type LoadedPlan struct {
	PlanID  string
	Version int
	Data    PlanData
}

// RemoteCall is the injected capability for talking to the account store.
// LoadPlan returns (nil, nil) when the user has no plan yet.
type RemoteCall interface {
	Authenticated() bool
	SavePlan(ctx context.Context, data PlanData) (SaveResult, error)
	LoadPlan(ctx context.Context) (*LoadedPlan, error)
	DeletePlan(ctx context.Context) error
}

// PlanCache is local, best-effort persistence used as the unload-path
// fallback and as the load fallback when the remote is unreachable.
type PlanCache interface {
	Put(ctx context.Context, data PlanData) error
	Get(ctx context.Context) (*PlanData, time.Time, error)
	Clear(ctx context.Context) error
}

// Recorder receives one record per sync operation for ops accounting.
type Recorder interface {
	RecordSync(operation string, success bool, duration time.Duration, payloadBytes int)
}

// Options tune the coordinator's timing; zero values take the defaults.
type Options struct {
	DebounceDelay time.Duration
	SaveCooldown  time.Duration
}

// Coordinator owns the debounce timer, the baseline snapshot, and the
// sync bookkeeping. All of that state is per-instance, so independent
// coordinators (one per test, say) never collide.
type Coordinator struct {
	remote  RemoteCall
	cache   PlanCache
	metrics Recorder
	log     *zap.Logger

	debounce time.Duration
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	timer       *time.Timer
	baseline    string
	hasBaseline bool
	planID      string
	version     int
	lastSynced  time.Time
	lastSaveAt  time.Time
	syncing     bool
	closed      bool
	lastSyncErr string
}

// NewCoordinator builds a coordinator around the injected remote-call
// capability. cache and metrics may be nil.
func NewCoordinator(remote RemoteCall, cache PlanCache, metrics Recorder, log *zap.Logger, opts Options) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = DefaultDebounceDelay
	}
	if opts.SaveCooldown <= 0 {
		opts.SaveCooldown = DefaultSaveCooldown
	}
	return &Coordinator{
		remote:   remote,
		cache:    cache,
		metrics:  metrics,
		log:      log,
		debounce: opts.DebounceDelay,
		cooldown: opts.SaveCooldown,
		now:      time.Now,
	}
}

// HasUnsavedChanges reports whether the given plan differs from the last
// snapshot known to be persisted. Before any baseline exists, or while no
// store is selected, there is nothing meaningful to compare and the
// answer is false.
func (c *Coordinator) HasUnsavedChanges(data PlanData) bool {
	c.mu.Lock()
	baseline, has := c.baseline, c.hasBaseline
	c.mu.Unlock()
	if !has || data.SelectedStore == "" {
		return false
	}
	return CreateSnapshot(data) != baseline
}

// DebouncedSave re-arms the quiescence timer. Each call cancels any
// pending timer unconditionally, so rapid mutations collapse into one
// save. When the timer fires, the plan is re-read fresh through getPlan;
// the state captured at arm time is never used.
func (c *Coordinator) DebouncedSave(getPlan func() PlanData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.flush(context.Background(), getPlan)
	})
}

// flush is the debounce timer body: verify there is something worth
// saving and that saving is possible, then persist. Every early exit is a
// silent skip; the next mutation re-arms the timer.
func (c *Coordinator) flush(ctx context.Context, getPlan func() PlanData) {
	c.mu.Lock()
	if c.closed || c.syncing {
		c.mu.Unlock()
		return
	}
	lastSave := c.lastSaveAt
	c.mu.Unlock()

	if !lastSave.IsZero() && c.now().Sub(lastSave) < c.cooldown {
		c.log.Debug("debounced save skipped: within save cooldown")
		return
	}

	data := getPlan()
	if data.SelectedStore == "" {
		c.log.Debug("debounced save skipped: no store selected")
		return
	}
	if !c.HasUnsavedChanges(data) {
		c.log.Debug("debounced save skipped: no changes")
		return
	}
	if !c.remote.Authenticated() {
		c.log.Debug("debounced save skipped: not authenticated")
		return
	}

	if err := c.SaveUserPlan(ctx, getPlan); err != nil {
		c.log.Warn("debounced save failed", zap.Error(err))
	}
}

// SaveUserPlan persists the full plan payload. On success the baseline
// becomes the snapshot that was actually sent, so later dirty-checks
// compare against what the remote really holds. Only one save may be in
// flight; concurrent calls are no-ops.
func (c *Coordinator) SaveUserPlan(ctx context.Context, getPlan func() PlanData) error {
	c.mu.Lock()
	if c.syncing {
		c.mu.Unlock()
		return nil
	}
	c.syncing = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.syncing = false
		c.mu.Unlock()
	}()

	data := getPlan()
	snapshot := CreateSnapshot(data)

	start := c.now()
	result, err := c.remote.SavePlan(ctx, data)
	c.record("save", err == nil, c.now().Sub(start), len(snapshot))
	if err != nil {
		c.mu.Lock()
		c.lastSyncErr = err.Error()
		c.mu.Unlock()
		return fmt.Errorf("failed to save user plan: %w", err)
	}

	now := c.now()
	c.mu.Lock()
	c.planID = result.PlanID
	c.version = result.Version
	c.lastSynced = now
	c.lastSaveAt = now
	c.baseline = snapshot
	c.hasBaseline = true
	c.lastSyncErr = ""
	c.mu.Unlock()

	c.cachePut(ctx, data)
	c.log.Info("plan saved",
		zap.String("planId", result.PlanID),
		zap.Int("version", result.Version))
	return nil
}

// LoadUserPlan fetches the remote plan and hydrates the stores through
// apply. current must return the post-hydration plan state; the baseline
// is established from it so the session starts clean. When the remote has
// no plan (or is unreachable) the local cache is tried; a cache-recovered
// plan gets an empty baseline so it reads dirty and re-persists.
func (c *Coordinator) LoadUserPlan(ctx context.Context, apply func(PlanData), current func() PlanData) error {
	start := c.now()
	loaded, err := c.remote.LoadPlan(ctx)
	c.record("load", err == nil, c.now().Sub(start), 0)
	if err != nil {
		c.mu.Lock()
		c.lastSyncErr = err.Error()
		c.mu.Unlock()
		c.log.Warn("remote plan load failed, trying cache", zap.Error(err))
		if c.loadFromCache(ctx, apply) {
			return nil
		}
		return fmt.Errorf("failed to load user plan: %w", err)
	}

	if loaded != nil {
		apply(loaded.Data)
		now := c.now()
		c.mu.Lock()
		c.planID = loaded.PlanID
		c.version = loaded.Version
		c.lastSynced = now
		c.baseline = CreateSnapshot(current())
		c.hasBaseline = true
		c.lastSyncErr = ""
		c.mu.Unlock()
		c.cachePut(ctx, loaded.Data)
		c.log.Info("plan loaded",
			zap.String("planId", loaded.PlanID),
			zap.Int("version", loaded.Version))
		return nil
	}

	if c.loadFromCache(ctx, apply) {
		return nil
	}

	// No remote plan and no cache: a genuinely new plan. Baseline from
	// the current (default) state so there is no dirty ambiguity.
	c.mu.Lock()
	c.planID = ""
	c.version = 0
	c.baseline = CreateSnapshot(current())
	c.hasBaseline = true
	c.lastSyncErr = ""
	c.mu.Unlock()
	c.log.Info("no remote plan found, starting fresh")
	return nil
}

// loadFromCache hydrates from the local cache if it has anything. The
// baseline is left empty-but-established so the recovered state counts as
// unsaved and the next quiet period pushes it to the remote.
func (c *Coordinator) loadFromCache(ctx context.Context, apply func(PlanData)) bool {
	if c.cache == nil {
		return false
	}
	data, savedAt, err := c.cache.Get(ctx)
	if err != nil {
		c.log.Warn("plan cache read failed", zap.Error(err))
		return false
	}
	if data == nil {
		return false
	}
	apply(*data)
	c.mu.Lock()
	c.baseline = ""
	c.hasBaseline = true
	c.mu.Unlock()
	c.log.Info("plan recovered from local cache", zap.Time("savedAt", savedAt))
	return true
}

// DeleteUserPlan clears the remote plan and all local sync bookkeeping.
func (c *Coordinator) DeleteUserPlan(ctx context.Context) error {
	start := c.now()
	err := c.remote.DeletePlan(ctx)
	c.record("delete", err == nil, c.now().Sub(start), 0)
	if err != nil {
		c.mu.Lock()
		c.lastSyncErr = err.Error()
		c.mu.Unlock()
		return fmt.Errorf("failed to delete user plan: %w", err)
	}

	c.mu.Lock()
	c.planID = ""
	c.version = 0
	c.lastSynced = time.Time{}
	c.baseline = ""
	c.hasBaseline = false
	c.lastSyncErr = ""
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Clear(ctx); err != nil {
			c.log.Warn("plan cache clear failed", zap.Error(err))
		}
	}
	return nil
}

// FlushToCache synchronously writes the plan to the local cache. This is
// the last-resort path for unload-style signals where a network round
// trip cannot be trusted to finish.
func (c *Coordinator) FlushToCache(ctx context.Context, data PlanData) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Put(ctx, data); err != nil {
		return fmt.Errorf("failed to flush plan to cache: %w", err)
	}
	return nil
}

// Close cancels the pending debounce timer and attempts one best-effort
// final save if changes are outstanding; if that fails, the plan is at
// least flushed to the local cache. Safe to call once at session end.
func (c *Coordinator) Close(ctx context.Context, getPlan func() PlanData) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	if getPlan == nil {
		return
	}
	data := getPlan()
	if !c.HasUnsavedChanges(data) {
		return
	}
	if c.remote.Authenticated() {
		if err := c.SaveUserPlan(ctx, getPlan); err == nil {
			return
		}
	}
	if err := c.FlushToCache(ctx, data); err != nil {
		c.log.Warn("final cache flush failed", zap.Error(err))
	}
}

func (c *Coordinator) cachePut(ctx context.Context, data PlanData) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(ctx, data); err != nil {
		c.log.Warn("plan cache write failed", zap.Error(err))
	}
}

func (c *Coordinator) record(op string, success bool, d time.Duration, payloadBytes int) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordSync(op, success, d, payloadBytes)
}

// PlanID returns the remote plan id, empty before the first save.
func (c *Coordinator) PlanID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.planID
}

// Version returns the remote plan version.
func (c *Coordinator) Version() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// LastSynced returns when the plan last round-tripped with the remote.
func (c *Coordinator) LastSynced() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSynced
}

// LastSyncError returns the last transport/auth failure message, empty
// when the previous operation succeeded.
func (c *Coordinator) LastSyncError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSyncErr
}

// IsSyncing reports whether a save is currently in flight.
func (c *Coordinator) IsSyncing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncing
}
