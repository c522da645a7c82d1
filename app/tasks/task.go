package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

type TaskType string

const (
	TaskTypeIngest   TaskType = "ingest"
	TaskTypeBackfill TaskType = "backfill"
	TaskTypeEnrich   TaskType = "enrich"
	TaskTypeGenerate TaskType = "generate"
	TaskTypePublish  TaskType = "publish"
)

// Result counts per-article outcomes of one stage invocation.
type Result struct {
	Succeeded int
	Skipped   int
	Failed    int
}

func (r Result) Add(other Result) Result {
	return Result{
		Succeeded: r.Succeeded + other.Succeeded,
		Skipped:   r.Skipped + other.Skipped,
		Failed:    r.Failed + other.Failed,
	}
}

type TaskInterface interface {
	Execute(ctx context.Context) (Result, error)
	GetID() string
	GetType() TaskType
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID        string
	Type      TaskType
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType) Task {
	uniqueID := fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Intn(10000))

	return Task{
		ID:   uniqueID,
		Type: taskType,
	}
}
