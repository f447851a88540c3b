package notify

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/huddlehq/huddle/go/internal/models"
	"github.com/huddlehq/huddle/go/internal/standup/storage"
)

// MaxJournalEntries caps the activity log; the oldest entries are evicted.
const MaxJournalEntries = 50

// Journal is the persisted, capped, newest-first activity log for one team.
// Entries are immutable once appended. The journal is scoped per team: on a
// team change it reloads from the store under the new team's key.
type Journal struct {
	clock clockwork.Clock
	store storage.Store

	mu      sync.Mutex
	teamID  int64
	entries []models.LogEntry
}

// NewJournal creates a journal backed by the given store.
func NewJournal(clock clockwork.Clock, store storage.Store) *Journal {
	return &Journal{clock: clock, store: store}
}

func journalKey(teamID int64) string {
	return fmt.Sprintf("standup-log-%d", teamID)
}

// LoadTeam switches the journal to a team, replacing the in-memory list
// with whatever is persisted for that team (or nothing).
func (j *Journal) LoadTeam(teamID int64) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.teamID = teamID
	j.entries = nil

	raw, ok, err := j.store.Get(journalKey(teamID))
	if err != nil {
		log.Debug().Err(err).Int64("team_id", teamID).Msg("failed to load persisted activity log")
		return
	}
	if !ok {
		return
	}
	var entries []models.LogEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Debug().Err(err).Int64("team_id", teamID).Msg("discarding corrupt persisted activity log")
		return
	}
	if len(entries) > MaxJournalEntries {
		entries = entries[:MaxJournalEntries]
	}
	j.entries = entries
}

// Append stamps the message with the local time, prepends it, truncates to
// the cap, and persists the result.
func (j *Journal) Append(message string) models.LogEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := models.LogEntry{
		ID:        uuid.New().String(),
		Timestamp: j.clock.Now().Local().Format("15:04:05"),
		Message:   message,
	}

	j.entries = append([]models.LogEntry{entry}, j.entries...)
	if len(j.entries) > MaxJournalEntries {
		j.entries = j.entries[:MaxJournalEntries]
	}
	j.persistLocked()
	return entry
}

// Entries returns the log, newest first.
func (j *Journal) Entries() []models.LogEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]models.LogEntry(nil), j.entries...)
}

// Clear empties both the in-memory list and the persisted copy.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = nil
	if err := j.store.Delete(journalKey(j.teamID)); err != nil {
		log.Debug().Err(err).Int64("team_id", j.teamID).Msg("failed to clear persisted activity log")
	}
}

func (j *Journal) persistLocked() {
	data, err := json.Marshal(j.entries)
	if err != nil {
		log.Debug().Err(err).Msg("failed to encode activity log")
		return
	}
	if err := j.store.Set(journalKey(j.teamID), string(data)); err != nil {
		log.Debug().Err(err).Int64("team_id", j.teamID).Msg("failed to persist activity log")
	}
}
