package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/genricoloni/bingwall/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultRefreshInterval = time.Hour
	requestQueueSize       = 16
)

var (
	// ErrNotStarted is returned by operations on an engine before Start
	ErrNotStarted = errors.New("engine not started")

	// ErrStopped is returned by operations on an engine after Stop
	ErrStopped = errors.New("engine stopped")
)

type requestKind int

const (
	requestRefresh requestKind = iota
	requestForceRefresh
	requestNext
	requestPrevious
)

func (k requestKind) String() string {
	switch k {
	case requestRefresh:
		return "refresh"
	case requestForceRefresh:
		return "force-refresh"
	case requestNext:
		return "next"
	case requestPrevious:
		return "previous"
	default:
		return "unknown"
	}
}

type request struct {
	ctx   context.Context
	kind  requestKind
	reply chan error
}

type lifecycle int32

const (
	lifecycleIdle lifecycle = iota
	lifecycleRunning
	lifecycleStopped
)

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces time.Now as the engine's time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRefreshInterval sets the period of the scheduled refresh check (default: 1h)
func WithRefreshInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.refreshInterval = d
		}
	}
}

// Engine owns the wallpaper state: which feed offset is shown, the descriptor
// behind it and when the feed was last checked. A single loop goroutine
// executes every refresh, navigation and display change in arrival order;
// readers see published snapshots without waiting on it.
type Engine struct {
	logger          *zap.Logger
	feed            domain.FeedClient
	cache           domain.ImageCache
	displays        domain.DisplayProvider
	watcher         domain.DisplayWatcher
	executor        domain.Executor
	now             func() time.Time
	refreshInterval time.Duration

	snapshot atomic.Pointer[domain.WallpaperState]
	pub      *publisher
	requests chan request

	// owned by the loop goroutine
	lastRefresh time.Time
	active      []domain.Display

	mu     sync.Mutex
	status atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a new wallpaper state manager. watcher may be nil when
// display changes are not observed.
func NewEngine(
	logger *zap.Logger,
	feed domain.FeedClient,
	cache domain.ImageCache,
	displays domain.DisplayProvider,
	watcher domain.DisplayWatcher,
	exec domain.Executor,
	opts ...Option,
) *Engine {
	e := &Engine{
		logger:          logger,
		feed:            feed,
		cache:           cache,
		displays:        displays,
		watcher:         watcher,
		executor:        exec,
		now:             time.Now,
		refreshInterval: defaultRefreshInterval,
		pub:             newPublisher(),
		requests:        make(chan request, requestQueueSize),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the request loop and performs the initial refresh.
// A failed initial load is returned, but the engine keeps running and the
// scheduled check will retry.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	switch lifecycle(e.status.Load()) {
	case lifecycleRunning:
		e.mu.Unlock()
		return nil
	case lifecycleStopped:
		e.mu.Unlock()
		return ErrStopped
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.status.Store(int32(lifecycleRunning))
	e.mu.Unlock()

	e.logger.Info("Engine starting...", zap.Duration("refreshInterval", e.refreshInterval))
	go e.runLoop(loopCtx)

	if err := e.Refresh(ctx, false); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}
	return nil
}

// Stop terminates the loop, waits for the in-flight request to finish and
// closes every subscriber channel
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	prev := lifecycle(e.status.Swap(int32(lifecycleStopped)))
	cancel := e.cancel
	e.mu.Unlock()

	if prev != lifecycleRunning {
		e.pub.close()
		return nil
	}

	e.logger.Info("Engine stopping...")
	cancel()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh reloads today's image when forced, when nothing is loaded yet or
// when the current image has expired
func (e *Engine) Refresh(ctx context.Context, force bool) error {
	if force {
		return e.submit(ctx, requestForceRefresh)
	}
	return e.submit(ctx, requestRefresh)
}

// NextImage moves one step toward the most recent image
func (e *Engine) NextImage(ctx context.Context) error {
	return e.submit(ctx, requestNext)
}

// PreviousImage moves one step back in the feed history
func (e *Engine) PreviousImage(ctx context.Context) error {
	return e.submit(ctx, requestPrevious)
}

// State returns the latest published snapshot, false before the first successful load
func (e *Engine) State() (domain.WallpaperState, bool) {
	s := e.snapshot.Load()
	if s == nil {
		return domain.WallpaperState{}, false
	}
	return *s, true
}

// Subscribe returns a channel that first yields the current snapshot (nil
// when nothing is loaded) and then every newer one. A slow reader only sees
// the latest value. The returned func cancels the subscription.
func (e *Engine) Subscribe() (<-chan *domain.WallpaperState, func()) {
	return e.pub.subscribe(e.snapshot.Load)
}

func (e *Engine) submit(ctx context.Context, kind requestKind) error {
	switch lifecycle(e.status.Load()) {
	case lifecycleIdle:
		return ErrNotStarted
	case lifecycleStopped:
		return ErrStopped
	}

	req := request{ctx: ctx, kind: kind, reply: make(chan error, 1)}

	select {
	case e.requests <- req:
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) runLoop(ctx context.Context) {
	defer close(e.done)
	defer e.pub.close()

	e.active = e.resolveDisplays()

	ticker := time.NewTicker(e.refreshInterval)
	defer ticker.Stop()

	var events <-chan domain.DisplayEvent
	if e.watcher != nil {
		events = e.watcher.Events()
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine loop stopped")
			return

		case req := <-e.requests:
			req.reply <- e.handle(ctx, req)

		case <-ticker.C:
			if len(e.requests) > 0 {
				e.logger.Debug("Skipping scheduled refresh, user request pending")
				continue
			}
			if err := e.refresh(ctx, false); err != nil {
				e.logger.Warn("Scheduled refresh failed", zap.Error(err))
			}

		case ev, ok := <-events:
			if !ok {
				e.logger.Info("Display events channel closed")
				events = nil
				continue
			}
			e.handleDisplayChange(ctx, ev)
		}
	}
}

// handle runs one request bounded by both the caller's and the loop's context
func (e *Engine) handle(loopCtx context.Context, req request) error {
	ctx, cancel := context.WithCancel(req.ctx)
	defer cancel()
	stop := context.AfterFunc(loopCtx, cancel)
	defer stop()

	var err error
	switch req.kind {
	case requestRefresh:
		err = e.refresh(ctx, false)
	case requestForceRefresh:
		err = e.refresh(ctx, true)
	case requestNext:
		err = e.step(ctx, -1)
	case requestPrevious:
		err = e.step(ctx, +1)
	default:
		err = fmt.Errorf("unknown request kind %d", req.kind)
	}

	if err != nil {
		e.logger.Error("Request failed", zap.Stringer("request", req.kind), zap.Error(err))
	}
	return err
}

// refresh decides whether today's image needs loading. lastRefresh advances
// after every attempt, successful or not.
func (e *Engine) refresh(ctx context.Context, force bool) error {
	defer e.markRefreshed()

	current := e.snapshot.Load()
	switch {
	case force:
		e.logger.Info("Forced refresh")
	case current == nil || e.lastRefresh.IsZero():
		e.logger.Info("Loading initial image")
	case e.lastRefresh.After(current.Descriptor.Expiration()):
		e.logger.Info("Current image expired",
			zap.Time("expiration", current.Descriptor.Expiration()),
			zap.Time("lastRefresh", e.lastRefresh))
	default:
		e.logger.Debug("Current image still valid",
			zap.Time("expiration", current.Descriptor.Expiration()))
		return nil
	}

	return e.loadImage(ctx, 0)
}

func (e *Engine) markRefreshed() {
	if now := e.now(); now.After(e.lastRefresh) {
		e.lastRefresh = now
	}
}

// step loads the image delta positions away from the current one; moving past
// either end of the history, or with nothing loaded, does nothing
func (e *Engine) step(ctx context.Context, delta int) error {
	current := e.snapshot.Load()
	if current == nil {
		e.logger.Debug("No image loaded, ignoring navigation")
		return nil
	}

	target := current.Index + delta
	if target < 0 || target > domain.MaxIndex {
		e.logger.Debug("Navigation at history bound", zap.Int("index", current.Index))
		return nil
	}

	return e.loadImage(ctx, target)
}

// loadImage fetches the descriptor at index, makes sure its file is cached and
// publishes the result. Nothing observable changes unless every step succeeds.
func (e *Engine) loadImage(ctx context.Context, index int) error {
	desc, err := e.feed.TodayImage(ctx, index)
	if err != nil {
		return fmt.Errorf("failed to query feed at index %d: %w", index, err)
	}
	if desc == nil {
		e.logger.Info("No image available", zap.Int("index", index))
		return nil
	}

	path, err := e.cache.Download(ctx, *desc)
	if err != nil {
		return fmt.Errorf("failed to cache image %q: %w", desc.Title, err)
	}

	e.publish(ctx, &domain.WallpaperState{
		Index:      index,
		Descriptor: *desc,
		LocalPath:  path,
	})
	return nil
}

func (e *Engine) publish(ctx context.Context, state *domain.WallpaperState) {
	e.snapshot.Store(state)
	e.apply(ctx, state.LocalPath)
	e.pub.publish(state)

	e.logger.Info("Wallpaper updated",
		zap.Int("index", state.Index),
		zap.String("title", state.Descriptor.Title),
		zap.String("path", state.LocalPath))
}

func (e *Engine) handleDisplayChange(ctx context.Context, ev domain.DisplayEvent) {
	e.active = e.resolveDisplays()
	e.logger.Info("Display configuration changed",
		zap.String("source", ev.Source),
		zap.Int("displays", len(e.active)))

	if current := e.snapshot.Load(); current != nil {
		e.apply(ctx, current.LocalPath)
	}
}

// apply sets path on every known display; a failing display is logged and skipped
func (e *Engine) apply(ctx context.Context, path string) {
	for _, d := range e.active {
		if err := e.executor.SetWallpaper(ctx, path, d); err != nil {
			e.logger.Error("Failed to set wallpaper",
				zap.Int("display", d.ID),
				zap.String("path", path),
				zap.Error(err))
		}
	}
}

// resolveDisplays falls back to the primary display when none can be enumerated
func (e *Engine) resolveDisplays() []domain.Display {
	var displays []domain.Display
	if e.displays != nil {
		displays = e.displays.ActiveDisplays()
	}
	if len(displays) == 0 {
		e.logger.Debug("No displays enumerated, using primary")
		return []domain.Display{{ID: 0}}
	}
	return displays
}
