package tasks

import (
	"context"
	"log/slog"
)

// Runner executes tasks sequentially in the order given. The first fatal
// error stops the run; per-article failures inside a task only show up in
// the aggregated result.
type Runner struct {
	tasks []TaskInterface
}

func NewRunner(taskList []TaskInterface) *Runner {
	return &Runner{tasks: taskList}
}

func (r *Runner) Run(ctx context.Context) (Result, error) {
	var total Result

	for _, task := range r.tasks {
		task.Start()
		slog.Debug("Task started", "id", task.GetID(), "type", task.GetType())

		result, err := task.Execute(ctx)
		total = total.Add(result)
		if err != nil {
			slog.Error("Task failed", "id", task.GetID(), "type", task.GetType(), "error", err)
			return total, err
		}
	}

	return total, nil
}
