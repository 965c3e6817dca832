package spawn

import (
	"errors"
	"fmt"
)

// TaskError attributes an error to the task that returned it. Every task
// failure recorded by a [Group] is wrapped in a TaskError.
type TaskError struct {
	Task TaskInfo
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.Task.Name, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// TaskOf extracts the [TaskInfo] from the first [*TaskError] in err's chain.
func TaskOf(err error) (TaskInfo, bool) {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Task, true
	}
	return TaskInfo{}, false
}

// AllTaskErrors collects every [*TaskError] in err, descending into
// errors built with [errors.Join]. It returns nil if there are none.
func AllTaskErrors(err error) []*TaskError {
	if err == nil {
		return nil
	}
	var out []*TaskError
	collectTaskErrors(err, &out)
	return out
}

func collectTaskErrors(err error, out *[]*TaskError) {
	switch e := err.(type) {
	case *TaskError:
		*out = append(*out, e)
	case interface{ Unwrap() []error }:
		for _, sub := range e.Unwrap() {
			collectTaskErrors(sub, out)
		}
	case interface{ Unwrap() error }:
		collectTaskErrors(e.Unwrap(), out)
	}
}
