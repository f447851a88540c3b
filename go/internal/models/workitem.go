package models

import "time"

// WorkItemStatus defines the status of a work item.
type WorkItemStatus string

const (
	WorkItemStatusPending    WorkItemStatus = "PENDING"
	WorkItemStatusInProgress WorkItemStatus = "IN_PROGRESS"
	WorkItemStatusBlocked    WorkItemStatus = "BLOCKED"
	WorkItemStatusDone       WorkItemStatus = "DONE"
)

// WorkItem represents one tracked piece of work for a team.
type WorkItem struct {
	ID          int64          `json:"id"`
	TeamID      int64          `json:"teamId"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      WorkItemStatus `json:"status"`
	Progress    int            `json:"progress"`
	HandlerID   *int64         `json:"handlerId,omitempty"`
	HandlerName string         `json:"handlerName,omitempty"`
	Cohandlers  []TeamMember   `json:"cohandlers,omitempty"`
	DueDate     *time.Time     `json:"dueDate,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
