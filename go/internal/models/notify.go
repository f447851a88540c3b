package models

// ToastVariant defines the severity of an operator toast.
type ToastVariant string

const (
	ToastInfo    ToastVariant = "info"
	ToastSuccess ToastVariant = "success"
	ToastWarning ToastVariant = "warning"
)

// ToastMessage is an ephemeral operator notice.
type ToastMessage struct {
	ID      int64        `json:"id"`
	Message string       `json:"message"`
	Variant ToastVariant `json:"variant"`
}

// LogEntry is one persisted human-readable activity trace line.
type LogEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}
