package domain

import "time"

// JobStatus is the live-announcement processing state.
type JobStatus string

const (
	JobStatusReceived        JobStatus = "received"
	JobStatusProcessing      JobStatus = "processing"
	JobStatusGeneratingVideo JobStatus = "generating_video"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusError           JobStatus = "error"
)

// LiveJob is the single-flight live announcement. At most one job is active
// (not superseded) at any time.
type LiveJob struct {
	ID          string
	TrainNumber string
	TrainName   string
	FromStation string
	ToStation   string
	Platform    int
	Category    string
	Avatar      Avatar
	Status      JobStatus
	Message     string
	Progress    *int
	VideoRef    string
	ErrorText   string
	Active      bool
	ReceivedAt  time.Time
	UpdatedAt   time.Time
}

// StatusEvent is the wire shape pushed to real-time subscribers after every
// job transition.
type StatusEvent struct {
	JobID     string    `json:"announcement_id"`
	Status    JobStatus `json:"status"`
	Message   string    `json:"message"`
	Progress  *int      `json:"progress_percentage,omitempty"`
	VideoRef  string    `json:"video_url,omitempty"`
	Error     string    `json:"error_message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
