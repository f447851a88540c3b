package standup_api_client

const (
	// API Endpoints (all scoped by team id)
	TeamMembersEndpoint         = "/api/teams/%d/members"
	TodayCheckinsEndpoint       = "/api/teams/%d/checkins/today"
	TodayWorkItemsEndpoint      = "/api/teams/%d/workitems/today"
	IncompleteWorkItemsEndpoint = "/api/teams/%d/workitems/incomplete"
	ForceStartStandupEndpoint   = "/api/teams/%d/standup/force-start"
	ForceStopStandupEndpoint    = "/api/teams/%d/standup/force-stop"

	// Headers
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	ContentTypeHeader   = "Content-Type"
	ContentTypeJSON     = "application/json"
)
