package database

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIntegrity marks store constraint violations. Tasks treat it as a
// per-article failure: the offending transaction is rolled back and the rest
// of the batch continues.
var ErrIntegrity = errors.New("data integrity violation")

const sqliteConstraintCode = 19

func isConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()%256 == sqliteConstraintCode {
		return true
	}
	return strings.Contains(err.Error(), "constraint")
}

func wrapIntegrity(err error) error {
	if isConstraintErr(err) {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return err
}
