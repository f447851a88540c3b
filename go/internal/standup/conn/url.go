package conn

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPath is the server's standup websocket route.
const DefaultPath = "/ws/standup"

// BuildURL resolves the websocket URL for a (team, token) pair. Resolution
// order: explicit endpoint override, then one derived from the configured
// API base (http becomes ws, https becomes wss), then the fallback host.
// A bare fallback host defaults to plaintext ws; TLS deployments carry the
// scheme in the host value (wss://host or https://host). Team id and token
// travel as query parameters.
func BuildURL(endpoint, apiBase, fallbackHost string, teamID int64, token string) (string, error) {
	raw := endpoint
	switch {
	case raw != "":
	case apiBase != "":
		raw = upgradeScheme(apiBase) + DefaultPath
	case fallbackHost != "":
		if strings.Contains(fallbackHost, "://") {
			raw = upgradeScheme(fallbackHost) + DefaultPath
		} else {
			raw = "ws://" + fallbackHost + DefaultPath
		}
	default:
		return "", fmt.Errorf("no websocket endpoint configured")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse websocket endpoint %q: %w", raw, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("websocket endpoint %q has unsupported scheme %q", raw, u.Scheme)
	}

	q := u.Query()
	q.Set("teamId", strconv.FormatInt(teamID, 10))
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func upgradeScheme(base string) string {
	base = strings.TrimSuffix(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
