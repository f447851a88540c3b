package session

import "fmt"

// Operator log sentences, keyed by update action. %s is the actor's display
// name. These are the user-facing strings of the console UI.
var actionSentences = map[string]string{
	"checkin-created":            "%s 送出了簽到",
	"workitem-created":           "%s 建立了一個工作項目",
	"workitem-updated":           "%s 更新了一個工作項目",
	"workitem-progress":          "%s 更新了工作項目進度",
	"workitem-reassigned":        "%s 重新指派了一個工作項目",
	"workitem-moved-to-today":    "%s 將工作項目移到今日",
	"workitem-deleted":           "%s 刪除了一個工作項目",
	"workitem-cohandler-added":   "%s 新增了工作項目協作者",
	"workitem-cohandler-removed": "%s 移除了工作項目協作者",
	"backlog-promoted":           "%s 將待辦項目升級為工作項目",
	ActionSessionStarted:         "%s 開始了站立會議",
	ActionSessionEnded:           "%s 結束了站立會議",
	ActionParticipantJoined:      "%s 加入了站立會議",
	ActionParticipantLeft:        "%s 離開了站立會議",
}

// Connection and countdown notices.
const (
	MsgConnected        = "已連線到伺服器"
	MsgDisconnected     = "連線中斷，正在重新連線…"
	MsgRefreshFailed    = "無法更新站立會議資料"
	msgTwoMinuteWarning = "站立會議剩餘 2 分鐘"
	msgTimeUp           = "站立會議時間到"
)

const defaultActor = "system"

// actorName extracts the acting user's display name from update metadata.
func actorName(metadata map[string]any) string {
	if name, ok := asString(metadata["actorName"]); ok {
		return name
	}
	return defaultActor
}

// sentenceFor renders the operator log line for an update action.
func sentenceFor(action string, metadata map[string]any) string {
	if action == ActionSessionWarning {
		over, _ := asInt64(metadata["overMinutes"])
		return overdueMessage(int(over))
	}
	tmpl, ok := actionSentences[action]
	if !ok {
		tmpl = "%s 更新了站立會議資訊"
	}
	return fmt.Sprintf(tmpl, actorName(metadata))
}

// overdueMessage renders the countdown overdue notice, with distinct wording
// for the moment the timer hits zero.
func overdueMessage(overMinutes int) string {
	if overMinutes <= 0 {
		return msgTimeUp
	}
	return fmt.Sprintf("站立會議已超時 %d 分鐘", overMinutes)
}
