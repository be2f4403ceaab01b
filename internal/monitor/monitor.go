package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/bingwall/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	mutterService   = "org.gnome.Mutter.DisplayConfig"
	mutterPath      = "/org/gnome/Mutter/DisplayConfig"
	mutterInterface = "org.gnome.Mutter.DisplayConfig"
	monitorsChanged = "MonitorsChanged"

	sourceDBus = "dbus"
	sourcePoll = "poll"
)

// ErrMonitorStopped is returned when starting a monitor that was already stopped
var ErrMonitorStopped = errors.New("display monitor stopped")

// DisplayMonitor reports display topology changes. It listens for the
// compositor's MonitorsChanged signal on the session bus and falls back to
// sampling the display layout when that signal is not available.
type DisplayMonitor struct {
	logger       *zap.Logger
	screens      domain.DisplayProvider
	pollInterval time.Duration
	dial         func() (DBusClient, error) // Replaced in tests
	events       chan domain.DisplayEvent
	mu           sync.Mutex
	running      bool
	stopped      bool
	cancel       context.CancelFunc
	conn         DBusClient
	wg           sync.WaitGroup // Tracks the producer goroutine
}

// NewDisplayMonitor creates a new display monitor instance
func NewDisplayMonitor(logger *zap.Logger, screens domain.DisplayProvider, cfg domain.Config) *DisplayMonitor {
	return &DisplayMonitor{
		logger:       logger,
		screens:      screens,
		pollInterval: cfg.GetDisplayPollInterval(),
		dial:         dialSession,
		// one slot: a pending event already covers any later change
		events: make(chan domain.DisplayEvent, 1),
	}
}

// Start begins watching and returns once a producer goroutine is running
func (m *DisplayMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrMonitorStopped
	}
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true

	// The producer outlives the start context, it ends on Stop
	monitorCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	// counted before unlocking so a concurrent Stop waits for the producer
	m.wg.Add(1)
	m.mu.Unlock()

	conn, err := m.subscribeSignals()
	if err != nil {
		m.logger.Info("Display change signals unavailable, polling display layout",
			zap.Error(err),
			zap.Duration("interval", m.pollInterval))

		go m.pollDisplays(monitorCtx)
		return nil
	}

	// Protect connection assignment with mutex to avoid race with Stop()
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		m.closeConn(conn)
		m.wg.Done()
		return ErrMonitorStopped
	}
	m.conn = conn
	m.mu.Unlock()

	go m.monitorSignals(monitorCtx, conn)

	m.logger.Info("Display monitor started", zap.String("source", sourceDBus))
	return nil
}

// Stop gracefully stops the monitor and closes the events channel
func (m *DisplayMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.stopped = true
		m.mu.Unlock()
		return nil
	}
	m.cancel()
	m.running = false
	m.stopped = true
	m.mu.Unlock()

	// Wait for the producer before closing the channel it sends on
	m.wg.Wait()
	close(m.events)

	m.mu.Lock()
	if m.conn != nil {
		m.closeConn(m.conn)
		m.conn = nil
	}
	m.mu.Unlock()

	m.logger.Info("Display monitor shutdown complete")
	return nil
}

// Events returns a read-only channel that emits a DisplayEvent per detected change
func (m *DisplayMonitor) Events() <-chan domain.DisplayEvent {
	return m.events
}

// subscribeSignals connects to the session bus and registers for
// MonitorsChanged. The connection is closed on any failure.
func (m *DisplayMonitor) subscribeSignals() (DBusClient, error) {
	conn, err := m.dial()
	if err != nil {
		return nil, fmt.Errorf("session bus connection failed: %w", err)
	}

	if _, err := conn.GetNameOwner(mutterService); err != nil {
		m.closeConn(conn)
		return nil, fmt.Errorf("%s not available: %w", mutterService, err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(mutterPath),
		dbus.WithMatchInterface(mutterInterface),
		dbus.WithMatchMember(monitorsChanged),
	); err != nil {
		m.closeConn(conn)
		return nil, fmt.Errorf("failed to add match signal: %w", err)
	}

	return conn, nil
}

// monitorSignals listens for D-Bus signals and processes them
func (m *DisplayMonitor) monitorSignals(ctx context.Context, conn DBusClient) {
	defer m.wg.Done()

	signals := make(chan *dbus.Signal, 10)
	conn.Signal(signals)

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("Signal monitoring goroutine stopped")
			return
		case sig, ok := <-signals:
			if !ok {
				m.logger.Warn("D-Bus signal channel closed, display changes will not be detected")
				return
			}
			m.handleSignal(sig)
		}
	}
}

func (m *DisplayMonitor) handleSignal(sig *dbus.Signal) {
	if sig == nil || sig.Name != mutterInterface+"."+monitorsChanged {
		return
	}
	m.emit(sourceDBus)
}

// pollDisplays samples the layout and emits when it differs from the last sample
func (m *DisplayMonitor) pollDisplays(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	last := m.screens.ActiveDisplays()
	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("Display polling goroutine stopped")
			return
		case <-ticker.C:
			current := m.screens.ActiveDisplays()
			if sameLayout(last, current) {
				continue
			}
			m.logger.Debug("Display layout changed",
				zap.Int("before", len(last)),
				zap.Int("after", len(current)))
			last = current
			m.emit(sourcePoll)
		}
	}
}

// emit never blocks; when an event is already pending the new one is dropped
func (m *DisplayMonitor) emit(source string) {
	select {
	case m.events <- domain.DisplayEvent{Source: source, At: time.Now()}:
		m.logger.Info("Display change detected", zap.String("source", source))
	default:
		m.logger.Debug("Display change already pending", zap.String("source", source))
	}
}

func (m *DisplayMonitor) closeConn(conn DBusClient) {
	if err := conn.Close(); err != nil {
		m.logger.Warn("Failed to close D-Bus connection", zap.Error(err))
	}
}
