package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestRecomputeFromChecklist(t *testing.T) {
	tests := []struct {
		name         string
		checklist    []TodoItem
		wantProgress int
		wantStatus   Status
	}{
		{"empty", nil, 0, StatusPending},
		{"none done", []TodoItem{{Text: "a"}, {Text: "b"}}, 0, StatusPending},
		{"half done", []TodoItem{{Text: "a", Completed: true}, {Text: "b"}}, 50, StatusInProgress},
		{"one of three", []TodoItem{{Completed: true}, {}, {}}, 33, StatusInProgress},
		{"two of three", []TodoItem{{Completed: true}, {Completed: true}, {}}, 67, StatusInProgress},
		{"one of eight rounds up", []TodoItem{{Completed: true}, {}, {}, {}, {}, {}, {}, {}}, 13, StatusInProgress},
		{"all done", []TodoItem{{Completed: true}, {Completed: true}}, 100, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress, status := RecomputeFromChecklist(tt.checklist)
			if progress != tt.wantProgress || status != tt.wantStatus {
				t.Errorf("got (%d, %q), want (%d, %q)", progress, status, tt.wantProgress, tt.wantStatus)
			}
		})
	}
}

func TestRecomputeFromChecklist_AllSizes(t *testing.T) {
	for total := 0; total <= 40; total++ {
		for completed := 0; completed <= total; completed++ {
			items := make([]TodoItem, total)
			for i := 0; i < completed; i++ {
				items[i].Completed = true
			}

			progress, status := RecomputeFromChecklist(items)
			if progress < 0 || progress > 100 {
				t.Fatalf("%d/%d: progress %d out of range", completed, total, progress)
			}

			want := 0
			if total > 0 {
				want = int(math.Floor(100*float64(completed)/float64(total) + 0.5))
			}
			if progress != want {
				t.Fatalf("%d/%d: progress %d, want %d", completed, total, progress, want)
			}

			switch {
			case progress == 100 && status != StatusCompleted,
				progress > 0 && progress < 100 && status != StatusInProgress,
				progress == 0 && status != StatusPending:
				t.Fatalf("%d/%d: status %q inconsistent with progress %d", completed, total, status, progress)
			}
		}
	}
}

func TestApplyChecklist_Idempotent(t *testing.T) {
	items := []TodoItem{{Text: "a", Completed: true}, {Text: "b"}}
	task := &Task{}

	task.ApplyChecklist(items)
	firstProgress, firstStatus := task.Progress, task.Status
	task.ApplyChecklist(items)

	if task.Progress != firstProgress || task.Status != firstStatus {
		t.Errorf("second apply changed result: (%d,%q) -> (%d,%q)", firstProgress, firstStatus, task.Progress, task.Status)
	}
	if task.Progress != 50 || task.Status != StatusInProgress {
		t.Errorf("got (%d, %q), want (50, In Progress)", task.Progress, task.Status)
	}
}

func TestApplyChecklist_NilBecomesEmpty(t *testing.T) {
	task := &Task{Progress: 80, Status: StatusInProgress}
	task.ApplyChecklist(nil)

	if task.TodoChecklist == nil || len(task.TodoChecklist) != 0 {
		t.Errorf("expected empty non-nil checklist, got %#v", task.TodoChecklist)
	}
	if task.Progress != 0 || task.Status != StatusPending {
		t.Errorf("got (%d, %q), want (0, Pending)", task.Progress, task.Status)
	}
}

func TestApplyStatus_CompletedForcesChecklist(t *testing.T) {
	task := &Task{
		Status:        StatusPending,
		TodoChecklist: []TodoItem{{Text: "a"}, {Text: "b"}},
	}

	task.ApplyStatus(StatusCompleted)

	if task.Progress != 100 {
		t.Errorf("expected progress 100, got %d", task.Progress)
	}
	for i, item := range task.TodoChecklist {
		if !item.Completed {
			t.Errorf("item %d not completed", i)
		}
	}
}

func TestApplyStatus_OtherStatusLeavesProgress(t *testing.T) {
	task := &Task{
		Status:        StatusCompleted,
		Progress:      100,
		TodoChecklist: []TodoItem{{Text: "a", Completed: true}},
	}

	task.ApplyStatus(StatusPending)

	if task.Status != StatusPending {
		t.Errorf("expected Pending, got %q", task.Status)
	}
	if task.Progress != 100 || !task.TodoChecklist[0].Completed {
		t.Error("direct non-completed status write must not touch progress or checklist")
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"Pending":     StatusPending,
		"in progress": StatusInProgress,
		"In progress": StatusInProgress,
		"in-progress": StatusInProgress,
		"InProgress":  StatusInProgress,
		"COMPLETED":   StatusCompleted,
	}
	for in, want := range cases {
		got, ok := ParseStatus(in)
		if !ok || got != want {
			t.Errorf("ParseStatus(%q) = (%q, %v), want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseStatus("done"); ok {
		t.Error("expected unknown status to be rejected")
	}
}

func TestParsePriority(t *testing.T) {
	for _, in := range []string{"High", "high", " HIGH "} {
		if got, ok := ParsePriority(in); !ok || got != PriorityHigh {
			t.Errorf("ParsePriority(%q) = (%q, %v)", in, got, ok)
		}
	}
	if _, ok := ParsePriority("urgent"); ok {
		t.Error("expected unknown priority to be rejected")
	}
}

func TestTaskDetailJSONExpandsAssignees(t *testing.T) {
	detail := TaskListItem{
		TaskDetail: TaskDetail{
			Task:       Task{ID: 1, AssignedTo: []int{9}},
			AssignedTo: []UserSummary{{ID: 9, Name: "Ana"}},
		},
		CompletedTodoCount: 2,
	}

	raw, err := json.Marshal(detail)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		AssignedTo         []map[string]interface{} `json:"assignedTo"`
		CompletedTodoCount int                      `json:"completedTodoCount"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.AssignedTo) != 1 || decoded.AssignedTo[0]["name"] != "Ana" {
		t.Errorf("expected expanded assignee, got %s", raw)
	}
	if decoded.CompletedTodoCount != 2 {
		t.Errorf("expected completedTodoCount 2, got %d", decoded.CompletedTodoCount)
	}
}
