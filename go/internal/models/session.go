package models

// SessionInfo is the timing contract of an active standup session.
// Times are epoch milliseconds on the server clock.
type SessionInfo struct {
	StartTime            int64  `json:"startTime"`
	DurationMs           int64  `json:"durationMs"`
	StartedBy            string `json:"startedBy"`
	RequiredParticipants *int   `json:"requiredParticipants,omitempty"`
}

// DefaultSessionDurationMs is used when a start payload omits the duration.
const DefaultSessionDurationMs = 15 * 60 * 1000

// Participant is a user currently connected to the session channel.
type Participant struct {
	UserID      int64  `json:"userId"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Name returns the best human-readable name for the participant.
func (p Participant) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// ParticipantStats holds aggregate participant counts for a team session.
type ParticipantStats struct {
	Required int `json:"required"`
	Current  int `json:"current"`
}
