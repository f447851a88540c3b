package session

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/huddlehq/huddle/go/internal/models"
)

// FrameType identifies the shape of an inbound realtime frame.
type FrameType string

const (
	// FrameSessionStatus is an authoritative full-state snapshot for a team.
	FrameSessionStatus FrameType = "session-status"
	// FrameUpdate is an incremental event since the last message.
	FrameUpdate FrameType = "update"
)

// Update actions that the state machine handles specially. Any other action
// is a domain-data mutation that triggers a background refresh.
const (
	ActionSessionStarted    = "standup-session-started"
	ActionSessionWarning    = "standup-session-warning"
	ActionSessionEnded      = "standup-session-ended"
	ActionParticipantJoined = "standup-participant-joined"
	ActionParticipantLeft   = "standup-participant-left"
)

// Frame is one inbound protocol frame. Numeric fields are decoded as `any`
// because the server occasionally omits them or sends them as strings from
// older clients; absence and non-numeric values must not fail the frame.
// A nil Participants pointer means the frame carried no roster at all,
// which is distinct from an empty roster.
type Frame struct {
	Type   FrameType `json:"type"`
	TeamID int64     `json:"teamId"`
	Action string    `json:"action,omitempty"`

	Active               bool                  `json:"active,omitempty"`
	ServerTimestamp      any                   `json:"serverTimestamp,omitempty"`
	RequiredParticipants any                   `json:"requiredParticipants,omitempty"`
	CurrentParticipants  any                   `json:"currentParticipants,omitempty"`
	StartTime            any                   `json:"startTime,omitempty"`
	DurationMs           any                   `json:"durationMs,omitempty"`
	StartedBy            string                `json:"startedBy,omitempty"`
	Participants         *[]models.Participant `json:"participants,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// DecodeFrame parses a raw websocket payload into a Frame.
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	switch f.Type {
	case FrameSessionStatus, FrameUpdate:
		return &f, nil
	default:
		return nil, fmt.Errorf("unknown frame type: %q", f.Type)
	}
}

// asInt64 coerces a decoded JSON value to int64. The second return reports
// whether the value was a usable finite number.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// asString coerces a decoded JSON value to a non-empty string.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
