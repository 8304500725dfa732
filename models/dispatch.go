package models

// RunResult aggregates one dispatch run. Ephemeral, never persisted.
type RunResult struct {
	Considered int `json:"subscriptions"`
	Sent       int `json:"notificationsSent"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Cleaned    int `json:"cleaned"`
}
