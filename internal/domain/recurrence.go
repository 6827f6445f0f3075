package domain

// Advance computes a fired task's next occurrence. It is a pure function:
// the input task is not modified.
//
// A task without a repeat interval does not continue. Otherwise the date
// moves forward by the repeat interval (calendar addition), and when a
// finite repeat count is present it is decremented; the task continues
// only while the remaining count is positive. The caller removes the task
// from the store when continues is false.
//
// The advanced date may still be in the past (interval shorter than the
// evaluation period). The scheduler does not re-fire such a task within
// the same pass; a task fires at most once per evaluation so a backlog
// cannot burst notifications.
func Advance(task *Task) (*Task, bool) {
	if task.RepeatDays == nil {
		return task.Clone(), false
	}

	next := task.Clone()
	next.Date = next.Date.AddDays(*next.RepeatDays)

	if next.RepeatCount == nil {
		return next, true
	}

	*next.RepeatCount--
	return next, *next.RepeatCount > 0
}
