package generator

import (
	"fmt"
)

// GenerationError is a per-article summarization or tagging failure.
// Non-fatal to the batch; nothing is committed for the article and it stays
// selectable on the next generation run.
type GenerationError struct {
	Op  string // "summary" or "tags"
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
