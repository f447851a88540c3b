package models

import "time"

// TeamMember represents a user belonging to a team.
type TeamMember struct {
	UserID      int64     `json:"userId"`
	TeamID      int64     `json:"teamId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        string    `json:"role,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Checkin is one member's daily standup check-in.
type Checkin struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"teamId"`
	UserID    int64     `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Yesterday string    `json:"yesterday,omitempty"`
	Today     string    `json:"today,omitempty"`
	Blockers  string    `json:"blockers,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
