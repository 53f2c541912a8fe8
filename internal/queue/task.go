package queue

type TaskType string

const (
	// TaskTypeChannelExtract asks the worker to pull a Slack channel's
	// history through the extraction service.
	TaskTypeChannelExtract TaskType = "channel_extract"
)

// Task is the unit of work enqueued by the API server and consumed by the
// worker. One task covers one Slack channel.
type Task struct {
	TaskType      TaskType
	UserID        int64
	SlackBotToken string
	Channel       string
	Limit         int
	TraceID       *string
	Attempt       int
}
