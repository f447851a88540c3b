package storage

// Store is the key-scoped persistence surface for operator-visible state:
// the per-team activity log and the global panel layout preferences. Values
// are opaque strings (JSON where the caller needs structure).
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Well-known keys. The activity log key is namespaced per team; the layout
// preference keys are global.
const (
	KeyPanelPosition  = "standup-panel-position"
	KeyPanelCollapsed = "standup-panel-collapsed"
)
