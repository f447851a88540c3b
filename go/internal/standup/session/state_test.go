package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/huddlehq/huddle/go/internal/models"
	"github.com/huddlehq/huddle/go/internal/standup/clocksync"
)

func newTestState(t *testing.T, at int64) (*State, *clocksync.Synchronizer, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.UnixMilli(at))
	sync := clocksync.New(clock)
	return NewState(42, sync), sync, clock
}

func decode(t *testing.T, raw string) *Frame {
	t.Helper()
	f, err := DecodeFrame([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeFrame error: %v", err)
	}
	return f
}

func TestDecodeFrameRejectsUnknownType(t *testing.T) {
	if _, err := DecodeFrame([]byte(`{"type":"mystery","teamId":1}`)); err == nil {
		t.Error("expected error for unknown frame type")
	}
	if _, err := DecodeFrame([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestInactiveSnapshotClearsSession(t *testing.T) {
	st, _, _ := newTestState(t, 1_000_000)

	st.ApplySnapshot(decode(t, `{"type":"session-status","teamId":42,"active":false}`))

	snap := st.Snapshot()
	if snap.Active || snap.Session != nil {
		t.Error("session should be absent after inactive snapshot")
	}
	if got := st.Tick(); got != nil {
		t.Errorf("Tick() with no session = %v, want nil", got)
	}
}

func TestActiveSnapshotBuildsSession(t *testing.T) {
	st, _, _ := newTestState(t, 1_000_000)

	st.ApplySnapshot(decode(t, `{
		"type":"session-status","teamId":42,"active":true,
		"serverTimestamp":900000,"startTime":870000,"durationMs":600000,
		"startedBy":"Bob","requiredParticipants":4,"currentParticipants":2,
		"participants":[{"userId":1,"username":"bob"},{"userId":2,"username":"eve"}]
	}`))

	snap := st.Snapshot()
	if !snap.Active {
		t.Fatal("session should be active")
	}
	if snap.Session.StartTime != 870_000 || snap.Session.DurationMs != 600_000 {
		t.Errorf("SessionInfo = %+v, want startTime 870000 durationMs 600000", snap.Session)
	}
	if snap.Session.StartedBy != "Bob" {
		t.Errorf("StartedBy = %q, want Bob", snap.Session.StartedBy)
	}
	if snap.Stats.Required != 4 {
		t.Errorf("Stats.Required = %d, want 4", snap.Stats.Required)
	}
	// Roster was carried, so current comes from the roster length.
	if snap.Stats.Current != 2 || len(snap.Participants) != 2 {
		t.Errorf("Stats.Current = %d with %d participants, want 2/2", snap.Stats.Current, len(snap.Participants))
	}
}

func TestSnapshotSyncsClock(t *testing.T) {
	st, sync, _ := newTestState(t, 1_000_000)

	// Local clock is 100s ahead of the server.
	st.ApplySnapshot(decode(t, `{"type":"session-status","teamId":42,"active":false,"serverTimestamp":900000}`))

	if got := sync.Offset(); got != 100*time.Second {
		t.Errorf("Offset() = %v, want 100s", got)
	}
}

func TestStickyRequiredAcrossSnapshot(t *testing.T) {
	st, _, _ := newTestState(t, 1_000_000)

	st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"standup-participant-joined","metadata":{"requiredParticipants":5}}`))
	if got := st.Snapshot().Stats.Required; got != 5 {
		t.Fatalf("Stats.Required = %d, want 5", got)
	}

	// Snapshot without the field retains the previous value.
	st.ApplySnapshot(decode(t, `{"type":"session-status","teamId":42,"active":false}`))
	if got := st.Snapshot().Stats.Required; got != 5 {
		t.Errorf("Stats.Required after omitting snapshot = %d, want 5", got)
	}

	// A snapshot that carries an explicit zero still overwrites.
	st.ApplySnapshot(decode(t, `{"type":"session-status","teamId":42,"active":false,"requiredParticipants":0}`))
	if got := st.Snapshot().Stats.Required; got != 0 {
		t.Errorf("Stats.Required after explicit zero = %d, want 0", got)
	}
}

func TestRosterReplacedWholesale(t *testing.T) {
	st, _, _ := newTestState(t, 1_000_000)

	st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"standup-participant-joined",
		"participants":[{"userId":1},{"userId":2},{"userId":3}]}`))
	if got := st.Snapshot().Stats.Current; got != 3 {
		t.Fatalf("Stats.Current = %d, want 3", got)
	}

	st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"standup-participant-left",
		"participants":[{"userId":1}]}`))
	snap := st.Snapshot()
	if len(snap.Participants) != 1 || snap.Stats.Current != 1 {
		t.Errorf("roster = %d entries, current = %d, want 1/1", len(snap.Participants), snap.Stats.Current)
	}

	// An update with no roster leaves the previous one untouched.
	st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"checkin-created","metadata":{}}`))
	if got := len(st.Snapshot().Participants); got != 1 {
		t.Errorf("roster after roster-free update = %d entries, want 1", got)
	}
}

func TestSessionStartedUpdate(t *testing.T) {
	st, _, _ := newTestState(t, 2_000_000)

	out := st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"standup-session-started",
		"metadata":{"startTime":1900000,"durationMs":900000,"serverTimestamp":1900000,"actorName":"Carol"}}`))

	if out.Refresh {
		t.Error("session start must suppress the domain refresh")
	}
	if len(out.LogLines) != 1 || out.LogLines[0] != "Carol 開始了站立會議" {
		t.Errorf("LogLines = %v", out.LogLines)
	}
	if len(out.Notices) != 1 || out.Notices[0].Variant != models.ToastSuccess {
		t.Errorf("Notices = %v, want one success toast", out.Notices)
	}

	snap := st.Snapshot()
	if snap.Session == nil || snap.Session.StartTime != 1_900_000 {
		t.Fatalf("Session = %+v, want startTime 1900000", snap.Session)
	}
	if snap.Session.StartedBy != "Carol" {
		t.Errorf("StartedBy = %q, want Carol", snap.Session.StartedBy)
	}
}

func TestSessionStartBackComputesStartTime(t *testing.T) {
	st, _, _ := newTestState(t, 2_000_000)

	// No startTime: the origin is reconstructed from serverTimestamp and
	// remainingMs so a mid-session joiner sees the true elapsed time.
	st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"standup-session-started",
		"metadata":{"serverTimestamp":1000000,"durationMs":900000,"remainingMs":600000}}`))

	snap := st.Snapshot()
	if snap.Session == nil {
		t.Fatal("session should be active")
	}
	if got := snap.Session.StartTime; got != 700_000 {
		t.Errorf("StartTime = %d, want 700000 (1000000 - (900000 - 600000))", got)
	}
}

func TestSessionStartDefaults(t *testing.T) {
	st, _, _ := newTestState(t, 2_000_000)

	// Bare start: duration defaults to 15 minutes, start time to "now" on
	// the server clock, actor to system.
	st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"standup-session-started","metadata":{}}`))

	snap := st.Snapshot()
	if snap.Session == nil {
		t.Fatal("session should be active")
	}
	if snap.Session.DurationMs != models.DefaultSessionDurationMs {
		t.Errorf("DurationMs = %d, want default", snap.Session.DurationMs)
	}
	if snap.Session.StartTime != 2_000_000 {
		t.Errorf("StartTime = %d, want 2000000", snap.Session.StartTime)
	}
	if snap.Session.StartedBy != "system" {
		t.Errorf("StartedBy = %q, want system", snap.Session.StartedBy)
	}
}

func TestSessionEndedUpdate(t *testing.T) {
	st, _, _ := newTestState(t, 2_000_000)
	st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"standup-session-started",
		"metadata":{"startTime":1900000,"durationMs":900000}}`))

	out := st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"standup-session-ended","metadata":{"actorName":"Dave"}}`))

	if out.Refresh {
		t.Error("session end must suppress the domain refresh")
	}
	if len(out.Notices) != 1 || out.Notices[0].Message != "Dave 結束了站立會議" {
		t.Errorf("Notices = %v, want end notice naming Dave", out.Notices)
	}
	if st.Active() {
		t.Error("session should be cleared")
	}
}

func TestWorkItemUpdateRequestsRefresh(t *testing.T) {
	st, _, _ := newTestState(t, 2_000_000)

	out := st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"workitem-created","metadata":{"actorName":"Alice"}}`))

	if !out.Refresh {
		t.Error("domain mutation must request a refresh")
	}
	if len(out.LogLines) != 1 || out.LogLines[0] != "Alice 建立了一個工作項目" {
		t.Errorf("LogLines = %v, want [Alice 建立了一個工作項目]", out.LogLines)
	}
}

func TestActionSentences(t *testing.T) {
	tests := []struct {
		action   string
		metadata map[string]any
		want     string
	}{
		{"checkin-created", map[string]any{"actorName": "Alice"}, "Alice 送出了簽到"},
		{"workitem-deleted", map[string]any{"actorName": "Bob"}, "Bob 刪除了一個工作項目"},
		{"workitem-progress", nil, "system 更新了工作項目進度"},
		{"backlog-promoted", map[string]any{"actorName": "Eve"}, "Eve 將待辦項目升級為工作項目"},
		{"standup-session-warning", map[string]any{"overMinutes": float64(3)}, "站立會議已超時 3 分鐘"},
		{"standup-session-warning", map[string]any{}, "站立會議時間到"},
		{"some-future-action", map[string]any{"actorName": "Mallory"}, "Mallory 更新了站立會議資訊"},
		{"some-future-action", nil, "system 更新了站立會議資訊"},
	}

	for _, tt := range tests {
		if got := sentenceFor(tt.action, tt.metadata); got != tt.want {
			t.Errorf("sentenceFor(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestUnknownActionRequestsRefresh(t *testing.T) {
	st, _, _ := newTestState(t, 2_000_000)

	out := st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"workitem-archived","metadata":{"actorName":"Zed"}}`))
	if !out.Refresh {
		t.Error("unknown action must request a refresh")
	}
	if out.LogLines[0] != "Zed 更新了站立會議資訊" {
		t.Errorf("LogLines = %v", out.LogLines)
	}
}

func TestWarningUpdateSetsOverdue(t *testing.T) {
	st, _, _ := newTestState(t, 2_000_000)
	st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"standup-session-started",
		"metadata":{"startTime":2000000,"durationMs":900000}}`))

	out := st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"standup-session-warning","metadata":{"overMinutes":2}}`))

	if len(out.Notices) != 1 || out.Notices[0].Message != "站立會議已超時 2 分鐘" {
		t.Errorf("Notices = %v", out.Notices)
	}
	if got := st.Snapshot().OverdueMinutes; got != 2 {
		t.Errorf("OverdueMinutes = %d, want 2", got)
	}
}

func TestSnapshotJSONShape(t *testing.T) {
	st, _, _ := newTestState(t, 2_000_000)
	st.ApplyUpdate(decode(t, `{"type":"update","teamId":42,"action":"standup-session-started",
		"metadata":{"startTime":1700000,"durationMs":900000,"actorName":"Ann"}}`))

	data, err := json.Marshal(st.Snapshot())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if raw["active"] != true {
		t.Error("snapshot JSON should report active")
	}
	if _, ok := raw["remainingMs"]; !ok {
		t.Error("snapshot JSON should carry remainingMs")
	}
}
