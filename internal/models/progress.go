package models

// ProgressUpdate is pushed to websocket clients when a job changes state.
type ProgressUpdate struct {
	JobID   string `json:"jobId"`
	Message string `json:"message"`
	Status  string `json:"status"` // "running", "success", "failed"
	Done    bool   `json:"done"`
}
