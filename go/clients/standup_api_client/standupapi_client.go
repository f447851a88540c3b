package standup_api_client

import (
	"github.com/huddlehq/huddle/go/clients"
)

// StandupApiClient talks to the standup server's REST surface: the bulk
// data fetchers that hydrate non-realtime state and the operator force
// start/stop endpoints.
type StandupApiClient struct {
	*clients.BaseClient
}

// NewStandupApiClient creates a client authorized with the given bearer
// token against the API base URL.
func NewStandupApiClient(baseURL, token string) *StandupApiClient {
	client := &StandupApiClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader(AuthorizationHeader, BearerPrefix+token)
	client.SetHeader(ContentTypeHeader, ContentTypeJSON)

	return client
}
