package conn

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Reconnect backoff: seed delay doubles per consecutive failure up to the
// cap, and resets to the seed on any successful open.
const (
	DefaultBackoffSeed = 2 * time.Second
	DefaultBackoffMax  = 15 * time.Second

	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Status is the connection lifecycle state reported to the coordinator.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Config configures a Manager for one (team, token) pair.
type Config struct {
	URL string

	// OnFrame receives every raw inbound frame, in receipt order, from the
	// single reader goroutine.
	OnFrame func(data []byte)
	// OnStatus receives lifecycle transitions. It is never called after
	// Close; teardown is silent.
	OnStatus func(status Status)

	// Clock drives the backoff and ping timers; tests inject a fake.
	Clock clockwork.Clock
	// BackoffSeed/BackoffMax override the defaults when nonzero.
	BackoffSeed time.Duration
	BackoffMax  time.Duration

	Dialer *websocket.Dialer
}

// Manager owns the single persistent websocket for a team session: it
// dials, pumps inbound frames, and reconnects with exponential backoff
// until closed. All of its state (socket handle, backoff delay, cancelled
// flag) lives here; one Manager is live per team at a time.
type Manager struct {
	cfg    Config
	clock  clockwork.Clock
	dialer *websocket.Dialer
	seed   time.Duration
	max    time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	cancelled bool
	stop      chan struct{}
}

// NewManager creates a manager for the resolved websocket URL.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		cfg:    cfg,
		clock:  cfg.Clock,
		dialer: cfg.Dialer,
		seed:   cfg.BackoffSeed,
		max:    cfg.BackoffMax,
		stop:   make(chan struct{}),
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.dialer == nil {
		m.dialer = websocket.DefaultDialer
	}
	if m.seed <= 0 {
		m.seed = DefaultBackoffSeed
	}
	if m.max <= 0 {
		m.max = DefaultBackoffMax
	}
	return m
}

// Run dials and re-dials until the context is cancelled or Close is called.
// It blocks; callers run it in a goroutine.
func (m *Manager) Run(ctx context.Context) {
	delay := m.seed
	for {
		if m.stopped() || ctx.Err() != nil {
			return
		}

		m.notify(StatusConnecting)
		ws, _, err := m.dialer.DialContext(ctx, m.cfg.URL, nil)
		if err != nil {
			if m.stopped() || ctx.Err() != nil {
				return
			}
			log.Debug().Err(err).Str("url", m.cfg.URL).Dur("retry_in", delay).Msg("websocket dial failed")
			m.notify(StatusDisconnected)
			if !m.wait(ctx, delay) {
				return
			}
			delay = m.nextDelay(delay)
			continue
		}

		m.mu.Lock()
		if m.cancelled {
			m.mu.Unlock()
			ws.Close()
			return
		}
		m.conn = ws
		m.mu.Unlock()

		// Successful open resets the backoff.
		delay = m.seed
		m.notify(StatusConnected)

		pingCtx, cancelPing := context.WithCancel(ctx)
		go m.pingLoop(pingCtx, ws)
		m.readLoop(ws)
		cancelPing()

		m.mu.Lock()
		if m.conn == ws {
			m.conn = nil
		}
		m.mu.Unlock()
		ws.Close()

		if m.stopped() || ctx.Err() != nil {
			// Explicit teardown: no status report, no reconnect.
			return
		}
		m.notify(StatusDisconnected)
		if !m.wait(ctx, delay) {
			return
		}
		delay = m.nextDelay(delay)
	}
}

// Close tears the connection down idempotently. No reconnect is scheduled
// and no further status callbacks fire.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.cancelled {
		m.mu.Unlock()
		return
	}
	m.cancelled = true
	ws := m.conn
	m.conn = nil
	close(m.stop)
	m.mu.Unlock()

	if ws != nil {
		ws.Close()
	}
}

// readLoop pumps inbound frames until the connection fails.
func (m *Manager) readLoop(ws *websocket.Conn) {
	ws.SetReadDeadline(time.Now().Add(pongTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !m.stopped() {
				log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(pongTimeout))
		if m.stopped() {
			return
		}
		if m.cfg.OnFrame != nil {
			m.cfg.OnFrame(data)
		}
	}
}

// pingLoop keeps the connection alive while it is the active one.
func (m *Manager) pingLoop(ctx context.Context, ws *websocket.Conn) {
	ticker := m.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.mu.Lock()
			active := m.conn == ws
			m.mu.Unlock()
			if !active {
				return
			}
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// wait sleeps for the backoff delay. It returns false when the manager was
// torn down or the context cancelled before the delay elapsed.
func (m *Manager) wait(ctx context.Context, delay time.Duration) bool {
	timer := m.clock.NewTimer(delay)
	defer stopAndDrainTimer(timer)
	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		return false
	case <-m.stop:
		return false
	}
}

func (m *Manager) nextDelay(delay time.Duration) time.Duration {
	delay *= 2
	if delay > m.max {
		delay = m.max
	}
	return delay
}

func (m *Manager) notify(status Status) {
	if m.stopped() || m.cfg.OnStatus == nil {
		return
	}
	m.cfg.OnStatus(status)
}

func (m *Manager) stopped() bool {
	select {
	case <-m.stop:
		return true
	default:
		return false
	}
}

// stopAndDrainTimer stops a timer and drains its channel so an
// already-fired timer cannot leak a pending tick.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
