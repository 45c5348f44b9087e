package model

// RecomputeFromChecklist derives progress and status from checklist completion.
// progress is round(100*completed/total), 0 for an empty checklist.
func RecomputeFromChecklist(checklist []TodoItem) (int, Status) {
	total := len(checklist)
	if total == 0 {
		return 0, StatusPending
	}

	completed := 0
	for _, item := range checklist {
		if item.Completed {
			completed++
		}
	}

	// integer round-half-up of 100*completed/total
	progress := (200*completed + total) / (2 * total)

	switch {
	case progress == 100:
		return progress, StatusCompleted
	case progress > 0:
		return progress, StatusInProgress
	default:
		return progress, StatusPending
	}
}

// ApplyChecklist replaces the checklist wholesale and re-derives progress and status.
func (t *Task) ApplyChecklist(items []TodoItem) {
	if items == nil {
		items = []TodoItem{}
	}
	t.TodoChecklist = items
	t.Progress, t.Status = RecomputeFromChecklist(items)
}

// ApplyStatus sets the status directly. Completed also marks every checklist
// item done and forces progress to 100; other statuses leave progress and the
// checklist untouched.
func (t *Task) ApplyStatus(status Status) {
	t.Status = status
	if status != StatusCompleted {
		return
	}
	for i := range t.TodoChecklist {
		t.TodoChecklist[i].Completed = true
	}
	t.Progress = 100
}
