package session

import (
	"sync"

	"github.com/huddlehq/huddle/go/internal/models"

	"github.com/huddlehq/huddle/go/internal/standup/clocksync"
)

// Notice is an operator-facing message produced by a state transition or a
// countdown threshold.
type Notice struct {
	Message string
	Variant models.ToastVariant
}

// Outcome tells the coordinator what to do after a frame has been applied:
// whether non-realtime domain data (checkins, work items) must be refreshed,
// which line to append to the activity log, and which toasts to raise.
type Outcome struct {
	Refresh  bool
	LogLines []string
	Notices  []Notice
}

// State is the single source of truth for one team's standup session. It is
// mutated only by the coordinator goroutine; the mutex exists so read-only
// snapshots can be served to the UI surface concurrently.
type State struct {
	clock  *clocksync.Synchronizer
	teamID int64

	mu      sync.Mutex
	session *models.SessionInfo
	roster  []models.Participant
	stats   models.ParticipantStats

	// One-shot countdown guards. overdue holds the last emitted overdue
	// minute value, -1 while none has fired. Both re-arm only on a fresh
	// SessionInfo (new start time).
	overdue int
	warned  bool
}

// NewState creates the session state machine for one team.
func NewState(teamID int64, clock *clocksync.Synchronizer) *State {
	return &State{
		clock:   clock,
		teamID:  teamID,
		overdue: -1,
	}
}

// ApplySnapshot applies an authoritative session-status frame. Fields the
// snapshot carries overwrite state wholesale; fields it omits are retained.
func (s *State) ApplySnapshot(f *Frame) Outcome {
	s.clock.SyncFromValue(f.ServerTimestamp)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mergeStats(f.RequiredParticipants, f.CurrentParticipants)
	if f.Participants != nil {
		s.roster = *f.Participants
		s.stats.Current = len(s.roster)
	}

	if f.Active {
		startedBy := f.StartedBy
		if startedBy == "" {
			startedBy = defaultActor
		}
		info := s.deriveSession(f.StartTime, f.DurationMs, nil, f.ServerTimestamp, startedBy, f.RequiredParticipants)
		s.replaceSession(info)
	} else {
		s.clearSession()
	}

	return Outcome{}
}

// ApplyUpdate applies an incremental update frame. Stats and roster use a
// sticky merge: only fields actually present in the payload are touched.
func (s *State) ApplyUpdate(f *Frame) Outcome {
	s.clock.SyncFromValue(f.Metadata["serverTimestamp"])

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mergeStats(f.Metadata["requiredParticipants"], f.Metadata["currentParticipants"])
	if f.Participants != nil {
		s.roster = *f.Participants
		s.stats.Current = len(s.roster)
	}

	line := sentenceFor(f.Action, f.Metadata)
	out := Outcome{LogLines: []string{line}}

	switch f.Action {
	case ActionSessionStarted:
		startedBy, ok := asString(f.Metadata["startedBy"])
		if !ok {
			startedBy = actorName(f.Metadata)
		}
		info := s.deriveSession(
			f.Metadata["startTime"],
			f.Metadata["durationMs"],
			f.Metadata["remainingMs"],
			f.Metadata["serverTimestamp"],
			startedBy,
			f.Metadata["requiredParticipants"],
		)
		s.replaceSession(info)
		out.Notices = append(out.Notices, Notice{Message: line, Variant: models.ToastSuccess})

	case ActionSessionWarning:
		over, _ := asInt64(f.Metadata["overMinutes"])
		s.overdue = int(over)
		out.Notices = append(out.Notices, Notice{Message: line, Variant: models.ToastWarning})

	case ActionSessionEnded:
		s.clearSession()
		out.Notices = append(out.Notices, Notice{Message: line, Variant: models.ToastInfo})

	case ActionParticipantJoined, ActionParticipantLeft:
		// Presence only; roster and stats were merged above.

	default:
		// A checkin/work-item/backlog mutation: the domain data shown
		// alongside the session is now stale.
		out.Refresh = true
	}

	return out
}

// mergeStats applies required/current counts for whichever fields are
// present. A carried field always overwrites, including an explicit zero; a
// non-numeric value counts as zero.
func (s *State) mergeStats(required, current any) {
	if required != nil {
		n, _ := asInt64(required)
		s.stats.Required = int(n)
	}
	if current != nil {
		n, _ := asInt64(current)
		s.stats.Current = int(n)
	}
}

// deriveSession builds a SessionInfo from a start payload. When startTime is
// absent it is back-computed as serverTimestamp - (duration - remaining), so
// a client joining mid-session reconstructs the true origin instead of
// assuming the session just began.
func (s *State) deriveSession(startTime, durationMs, remainingMs, serverTS any, startedBy string, required any) *models.SessionInfo {
	dur, ok := asInt64(durationMs)
	if !ok || dur <= 0 {
		dur = models.DefaultSessionDurationMs
	}

	start, ok := asInt64(startTime)
	if !ok {
		ts, ok := asInt64(serverTS)
		if !ok {
			ts = s.clock.NowMs()
		}
		rem, ok := asInt64(remainingMs)
		if !ok {
			rem = dur
		}
		start = ts - (dur - rem)
	}

	info := &models.SessionInfo{
		StartTime:  start,
		DurationMs: dur,
		StartedBy:  startedBy,
	}
	if req, ok := asInt64(required); ok {
		r := int(req)
		info.RequiredParticipants = &r
	}
	return info
}

// replaceSession installs a session wholesale. The one-shot countdown guards
// re-arm only when the start time actually changed, so a reconnect snapshot
// of the session already in progress cannot re-fire the warnings.
func (s *State) replaceSession(info *models.SessionInfo) {
	fresh := s.session == nil || s.session.StartTime != info.StartTime
	s.session = info
	if fresh {
		s.overdue = -1
		s.warned = false
	}
}

func (s *State) clearSession() {
	s.session = nil
	s.overdue = -1
	s.warned = false
}

// Snapshot is a read-only view of the derived session state.
type Snapshot struct {
	TeamID         int64                   `json:"teamId"`
	Active         bool                    `json:"active"`
	Session        *models.SessionInfo     `json:"session,omitempty"`
	Participants   []models.Participant    `json:"participants"`
	Stats          models.ParticipantStats `json:"stats"`
	RemainingMs    int64                   `json:"remainingMs"`
	OverdueMinutes int                     `json:"overdueMinutes"`
}

// Snapshot returns the current derived state for UI consumption.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TeamID:       s.teamID,
		Participants: append([]models.Participant(nil), s.roster...),
		Stats:        s.stats,
	}
	if s.overdue > 0 {
		snap.OverdueMinutes = s.overdue
	}
	if s.session != nil {
		info := *s.session
		snap.Active = true
		snap.Session = &info
		if rem := s.remainingLocked(); rem > 0 {
			snap.RemainingMs = rem
		}
	}
	return snap
}

// Active reports whether a session is currently live.
func (s *State) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

func (s *State) remainingLocked() int64 {
	return s.session.DurationMs - (s.clock.NowMs() - s.session.StartTime)
}
