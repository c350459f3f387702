package model

import "sort"

// Less is the single ordering used by every view: priority rank descending,
// then deadline ascending. The id breaks remaining ties so output is stable.
func Less(a, b Task) bool {
	ra, rb := a.Priority.Rank(), b.Priority.Rank()
	if ra != rb {
		return ra > rb
	}
	if !a.Deadline.Equal(b.Deadline) {
		return a.Deadline.Before(b.Deadline)
	}
	return a.ID < b.ID
}

func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return Less(tasks[i], tasks[j])
	})
}

func IsSorted(tasks []Task) bool {
	for i := 1; i < len(tasks); i++ {
		if Less(tasks[i], tasks[i-1]) {
			return false
		}
	}
	return true
}
