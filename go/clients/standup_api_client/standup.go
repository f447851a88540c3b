package standup_api_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huddlehq/huddle/go/internal/models"
)

// GetTeamMembers fetches the team's member roster.
func (c *StandupApiClient) GetTeamMembers(ctx context.Context, teamID int64) ([]models.TeamMember, error) {
	body, err := c.Get(ctx, fmt.Sprintf(TeamMembersEndpoint, teamID))
	if err != nil {
		return nil, fmt.Errorf("failed to get team members: %w", err)
	}

	var members []models.TeamMember
	if err := json.Unmarshal(body, &members); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team members: %w", err)
	}
	return members, nil
}

// GetTodayTeamCheckins fetches today's check-ins for the team.
func (c *StandupApiClient) GetTodayTeamCheckins(ctx context.Context, teamID int64) ([]models.Checkin, error) {
	body, err := c.Get(ctx, fmt.Sprintf(TodayCheckinsEndpoint, teamID))
	if err != nil {
		return nil, fmt.Errorf("failed to get today checkins: %w", err)
	}

	var checkins []models.Checkin
	if err := json.Unmarshal(body, &checkins); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkins: %w", err)
	}
	return checkins, nil
}

// GetTodayTeamWorkItems fetches the work items scheduled for today.
func (c *StandupApiClient) GetTodayTeamWorkItems(ctx context.Context, teamID int64) ([]models.WorkItem, error) {
	body, err := c.Get(ctx, fmt.Sprintf(TodayWorkItemsEndpoint, teamID))
	if err != nil {
		return nil, fmt.Errorf("failed to get today work items: %w", err)
	}

	var items []models.WorkItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal work items: %w", err)
	}
	return items, nil
}

// GetIncompleteTeamWorkItems fetches work items not yet done.
func (c *StandupApiClient) GetIncompleteTeamWorkItems(ctx context.Context, teamID int64) ([]models.WorkItem, error) {
	body, err := c.Get(ctx, fmt.Sprintf(IncompleteWorkItemsEndpoint, teamID))
	if err != nil {
		return nil, fmt.Errorf("failed to get incomplete work items: %w", err)
	}

	var items []models.WorkItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal work items: %w", err)
	}
	return items, nil
}

// ForceStartStandup asks the server to start the team's standup session.
// The result arrives as a realtime frame, not in this response.
func (c *StandupApiClient) ForceStartStandup(ctx context.Context, teamID int64) error {
	if _, err := c.Post(ctx, fmt.Sprintf(ForceStartStandupEndpoint, teamID), nil); err != nil {
		return fmt.Errorf("failed to force-start standup: %w", err)
	}
	return nil
}

// ForceStopStandup asks the server to end the team's standup session.
func (c *StandupApiClient) ForceStopStandup(ctx context.Context, teamID int64) error {
	if _, err := c.Post(ctx, fmt.Sprintf(ForceStopStandupEndpoint, teamID), nil); err != nil {
		return fmt.Errorf("failed to force-stop standup: %w", err)
	}
	return nil
}
