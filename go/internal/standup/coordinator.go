package standup

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/huddlehq/huddle/go/internal/models"
	"github.com/huddlehq/huddle/go/internal/standup/clocksync"
	"github.com/huddlehq/huddle/go/internal/standup/conn"
	"github.com/huddlehq/huddle/go/internal/standup/notify"
	"github.com/huddlehq/huddle/go/internal/standup/session"
	"github.com/huddlehq/huddle/go/internal/standup/storage"
)

// API is what the coordinator needs from the standup REST layer.
type API interface {
	GetTeamMembers(ctx context.Context, teamID int64) ([]models.TeamMember, error)
	GetTodayTeamCheckins(ctx context.Context, teamID int64) ([]models.Checkin, error)
	GetTodayTeamWorkItems(ctx context.Context, teamID int64) ([]models.WorkItem, error)
	GetIncompleteTeamWorkItems(ctx context.Context, teamID int64) ([]models.WorkItem, error)
	ForceStartStandup(ctx context.Context, teamID int64) error
	ForceStopStandup(ctx context.Context, teamID int64) error
}

// Config configures one coordinator instance.
type Config struct {
	TeamID int64
	Token  string

	// Websocket endpoint resolution inputs, in override order.
	WSEndpoint   string
	APIBaseURL   string
	FallbackHost string

	API   API
	Store storage.Store
	Clock clockwork.Clock

	// Backoff overrides for tests; zero means the conn defaults.
	BackoffSeed time.Duration
	BackoffMax  time.Duration
}

// DomainData is the non-realtime state hydrated over REST.
type DomainData struct {
	Members             []models.TeamMember `json:"members"`
	Checkins            []models.Checkin    `json:"checkins"`
	TodayWorkItems      []models.WorkItem   `json:"todayWorkItems"`
	IncompleteWorkItems []models.WorkItem   `json:"incompleteWorkItems"`
}

// Coordinator owns everything alive for one (team, token) session: the
// connection manager, the session state machine, the countdown, the sinks,
// and the background refreshes. One event loop goroutine serializes every
// state mutation; frames are fully applied before the next frame or tick.
// Switching teams means closing this instance and constructing a new one.
type Coordinator struct {
	cfg       Config
	clock     clockwork.Clock
	clockSync *clocksync.Synchronizer
	state     *session.State
	toaster   *notify.Toaster
	journal   *notify.Journal
	manager   *conn.Manager

	ctx    context.Context
	cancel context.CancelFunc

	frames   chan []byte
	statuses chan conn.Status

	mu         sync.Mutex
	connStatus conn.Status
	domain     DomainData
	pageError  string

	started   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// New builds a coordinator. Call Start to bring it live.
func New(cfg Config) (*Coordinator, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("standup coordinator requires an API client")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("standup coordinator requires a store")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	wsURL, err := conn.BuildURL(cfg.WSEndpoint, cfg.APIBaseURL, cfg.FallbackHost, cfg.TeamID, cfg.Token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sync := clocksync.New(clock)

	c := &Coordinator{
		cfg:        cfg,
		clock:      clock,
		clockSync:  sync,
		state:      session.NewState(cfg.TeamID, sync),
		toaster:    notify.NewToaster(clock),
		journal:    notify.NewJournal(clock, cfg.Store),
		ctx:        ctx,
		cancel:     cancel,
		frames:     make(chan []byte, 64),
		statuses:   make(chan conn.Status, 8),
		connStatus: conn.StatusConnecting,
		done:       make(chan struct{}),
	}
	c.journal.LoadTeam(cfg.TeamID)

	c.manager = conn.NewManager(conn.Config{
		URL:         wsURL,
		Clock:       clock,
		BackoffSeed: cfg.BackoffSeed,
		BackoffMax:  cfg.BackoffMax,
		OnFrame: func(data []byte) {
			select {
			case c.frames <- data:
			case <-ctx.Done():
			}
		},
		OnStatus: func(s conn.Status) {
			select {
			case c.statuses <- s:
			case <-ctx.Done():
			}
		},
	})

	return c, nil
}

// Start brings the connection up and begins the event loop. The initial
// domain hydration runs as a silent refresh in the background.
func (c *Coordinator) Start() {
	log.Info().Int64("team_id", c.cfg.TeamID).Msg("standup coordinator starting")
	c.started.Store(true)
	go c.manager.Run(c.ctx)
	go c.run()
	c.refreshSilent()
}

// Close tears everything down: the socket, the pending reconnect, the
// countdown, the toast timers. In-flight refreshes observe the cancelled
// context and never touch state afterwards. Idempotent.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		log.Info().Int64("team_id", c.cfg.TeamID).Msg("standup coordinator closing")
		c.cancel()
		c.manager.Close()
		c.toaster.Close()
		// The event loop only runs after Start; waiting for it on a
		// constructed-but-never-started coordinator would hang.
		if c.started.Load() {
			<-c.done
		}
	})
}

// run is the event loop. It is the only goroutine that mutates session
// state, which gives frames and ticks the strict in-order semantics the
// rest of the system assumes.
func (c *Coordinator) run() {
	defer close(c.done)

	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.frames:
			c.handleFrame(data)
		case status := <-c.statuses:
			c.handleStatus(status)
		case <-ticker.Chan():
			for _, n := range c.state.Tick() {
				c.toaster.Push(n.Message, n.Variant)
				c.journal.Append(n.Message)
			}
		}
	}
}

func (c *Coordinator) handleFrame(data []byte) {
	frame, err := session.DecodeFrame(data)
	if err != nil {
		// Malformed frames are diagnostics, never fatal.
		log.Debug().Err(err).Msg("dropping malformed frame")
		return
	}
	if frame.TeamID != 0 && frame.TeamID != c.cfg.TeamID {
		log.Debug().Int64("frame_team_id", frame.TeamID).Msg("dropping frame for another team")
		return
	}

	var out session.Outcome
	switch frame.Type {
	case session.FrameSessionStatus:
		out = c.state.ApplySnapshot(frame)
	case session.FrameUpdate:
		out = c.state.ApplyUpdate(frame)
	}

	for _, line := range out.LogLines {
		c.journal.Append(line)
	}
	for _, n := range out.Notices {
		c.toaster.Push(n.Message, n.Variant)
	}
	if out.Refresh {
		c.refreshSilent()
	}
}

func (c *Coordinator) handleStatus(status conn.Status) {
	c.mu.Lock()
	prev := c.connStatus
	c.connStatus = status
	c.mu.Unlock()

	switch status {
	case conn.StatusConnected:
		c.journal.Append(session.MsgConnected)
	case conn.StatusDisconnected:
		if prev != conn.StatusDisconnected {
			c.journal.Append(session.MsgDisconnected)
		}
	}
}

// refreshSilent refetches domain data in the background. Failures degrade
// to a warning toast so a transient API error never disrupts the live
// session view.
func (c *Coordinator) refreshSilent() {
	go func() {
		if err := c.fetchDomain(c.ctx); err != nil {
			if c.ctx.Err() != nil {
				return
			}
			log.Debug().Err(err).Int64("team_id", c.cfg.TeamID).Msg("silent refresh failed")
			c.toaster.Push(session.MsgRefreshFailed, models.ToastWarning)
		}
	}()
}

// Refresh performs an operator-initiated refetch. Failure surfaces as a
// page-level error and leaves the previous data in place.
func (c *Coordinator) Refresh(ctx context.Context) error {
	err := c.fetchDomain(ctx)
	c.mu.Lock()
	if err != nil {
		c.pageError = err.Error()
	} else {
		c.pageError = ""
	}
	c.mu.Unlock()
	return err
}

func (c *Coordinator) fetchDomain(ctx context.Context) error {
	teamID := c.cfg.TeamID

	members, err := c.cfg.API.GetTeamMembers(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to refresh team members: %w", err)
	}
	checkins, err := c.cfg.API.GetTodayTeamCheckins(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to refresh checkins: %w", err)
	}
	today, err := c.cfg.API.GetTodayTeamWorkItems(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to refresh today work items: %w", err)
	}
	incomplete, err := c.cfg.API.GetIncompleteTeamWorkItems(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to refresh incomplete work items: %w", err)
	}

	// The cancellation guard: a teardown racing these fetches must not
	// see its state resurrected by a late response.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.mu.Lock()
	c.domain = DomainData{
		Members:             members,
		Checkins:            checkins,
		TodayWorkItems:      today,
		IncompleteWorkItems: incomplete,
	}
	c.mu.Unlock()
	return nil
}

// ForceStart asks the server to start the session. The state change
// arrives back as a realtime frame; nothing is applied optimistically.
func (c *Coordinator) ForceStart(ctx context.Context) error {
	if err := c.cfg.API.ForceStartStandup(ctx, c.cfg.TeamID); err != nil {
		c.setPageError(err)
		return err
	}
	return nil
}

// ForceStop asks the server to end the session.
func (c *Coordinator) ForceStop(ctx context.Context) error {
	if err := c.cfg.API.ForceStopStandup(ctx, c.cfg.TeamID); err != nil {
		c.setPageError(err)
		return err
	}
	return nil
}

func (c *Coordinator) setPageError(err error) {
	c.mu.Lock()
	c.pageError = err.Error()
	c.mu.Unlock()
}

// DismissToast removes a toast before its TTL.
func (c *Coordinator) DismissToast(id int64) {
	c.toaster.Dismiss(id)
}

// ClearLog empties the activity log, in memory and persisted.
func (c *Coordinator) ClearLog() {
	c.journal.Clear()
}

// StatusSnapshot is the full read-only view served to the UI layer.
type StatusSnapshot struct {
	Connection conn.Status           `json:"connection"`
	Session    session.Snapshot      `json:"session"`
	Toasts     []models.ToastMessage `json:"toasts"`
	Log        []models.LogEntry     `json:"log"`
	Domain     DomainData            `json:"domain"`
	PageError  string                `json:"pageError,omitempty"`
}

// Snapshot assembles the current view of everything the coordinator owns.
func (c *Coordinator) Snapshot() StatusSnapshot {
	c.mu.Lock()
	status := c.connStatus
	domain := c.domain
	pageErr := c.pageError
	c.mu.Unlock()

	return StatusSnapshot{
		Connection: status,
		Session:    c.state.Snapshot(),
		Toasts:     c.toaster.Active(),
		Log:        c.journal.Entries(),
		Domain:     domain,
		PageError:  pageErr,
	}
}
