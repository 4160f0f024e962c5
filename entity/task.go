package entity

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// TaskStatus tracks where a download task sits in its lifecycle.
type TaskStatus string

const (
	TaskPending      TaskStatus = "Pending"
	TaskFetchingInfo TaskStatus = "FetchingInfo"
	TaskResolving    TaskStatus = "Resolving"
	TaskDownloading  TaskStatus = "Downloading"
	TaskConverting   TaskStatus = "Converting"
	TaskTagging      TaskStatus = "Tagging"
	TaskCleaningUp   TaskStatus = "CleaningUp"
	TaskCompleted    TaskStatus = "Completed"
	TaskFailed       TaskStatus = "Failed"
	TaskCancelled    TaskStatus = "Cancelled"
)

func (status TaskStatus) String() string {
	return string(status)
}

// IsTerminal reports whether the task reached a final state:
// a terminal task never re-enters a prior state, retry means
// a new task.
func (status TaskStatus) IsTerminal() bool {
	return status == TaskCompleted || status == TaskFailed || status == TaskCancelled
}

// DownloadTask is one in-flight download. It is owned by the
// orchestrator instance driving it; the cancellation flag is the only
// field meant to be touched from outside the task's own goroutine.
type DownloadTask struct {
	ID         string
	VideoRef   string
	OutputPath string
	Overwrite  bool

	status    TaskStatus
	cancelled atomic.Bool
}

func NewDownloadTask(videoRef string) *DownloadTask {
	return &DownloadTask{
		ID:       uuid.New().String(),
		VideoRef: videoRef,
		status:   TaskPending,
	}
}

// Cancel flags the task for cancellation. Safe to call from any
// goroutine, any number of times.
func (task *DownloadTask) Cancel() {
	task.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested. The
// orchestrator polls this at its stage checkpoints and never writes it.
func (task *DownloadTask) Cancelled() bool {
	return task.cancelled.Load()
}

func (task *DownloadTask) Status() TaskStatus {
	return task.status
}

func (task *DownloadTask) SetStatus(status TaskStatus) {
	task.status = status
}
