package task

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/cache"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/repository/memstore"
)

type recordingEmitter struct {
	keys []string
}

func (r *recordingEmitter) Emit(_ context.Context, routingKey string, _ any) {
	r.keys = append(r.keys, routingKey)
}

type fixture struct {
	svc     *Service
	store   *memstore.Store
	events  *recordingEmitter
	now     time.Time
	admin   model.Actor
	alice   model.Actor
	bob     model.Actor
	mktgAdm model.Actor
	mktgMem model.Actor
}

func newFixture(t *testing.T, dashboardCache DashboardCache) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tick := now
	store.SetClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})

	mk := func(name string, role model.Role, dept model.Department) model.Actor {
		d := dept
		u := &model.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: role, Department: &d}
		if err := store.Users.Create(ctx, u); err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
		return u.Actor()
	}

	f := &fixture{
		store:   store,
		events:  &recordingEmitter{},
		now:     now,
		admin:   mk("admin", model.RoleAdmin, model.DepartmentSales),
		alice:   mk("alice", model.RoleMember, model.DepartmentSales),
		bob:     mk("bob", model.RoleMember, model.DepartmentSales),
		mktgAdm: mk("madmin", model.RoleAdmin, model.DepartmentMarketing),
		mktgMem: mk("mary", model.RoleMember, model.DepartmentMarketing),
	}
	f.svc = NewService(store.Tasks, store.Users, dashboardCache, f.events, zap.NewNop())
	f.svc.now = func() time.Time { return now }
	return f
}

func (f *fixture) create(t *testing.T, actor model.Actor, in CreateInput) *model.TaskDetail {
	t.Helper()
	if in.Title == "" {
		in.Title = "Prepare quarterly report"
	}
	if in.DueDate == nil {
		due := f.now.Add(48 * time.Hour)
		in.DueDate = &due
	}
	task, err := f.svc.Create(context.Background(), actor, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return task
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !apperr.Is(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t, nil)

	task := f.create(t, f.admin, CreateInput{
		AssignedTo:    []int{f.alice.ID, f.bob.ID, f.alice.ID},
		Priority:      "High",
		TodoChecklist: []model.TodoItem{{Text: "draft", Completed: true}, {Text: "review"}},
	})

	if task.Department != model.DepartmentSales || task.CreatedBy != f.admin.ID {
		t.Errorf("expected department and creator from actor, got %s/%d", task.Department, task.CreatedBy)
	}
	if got := task.Task.AssignedTo; len(got) != 2 || got[0] != f.alice.ID || got[1] != f.bob.ID {
		t.Errorf("expected de-duplicated assignees in order, got %v", got)
	}
	if len(task.AssignedTo) != 2 || task.AssignedTo[0].Name != "alice" {
		t.Errorf("expected expanded assignees, got %+v", task.AssignedTo)
	}
	if task.Priority != model.PriorityHigh {
		t.Errorf("expected canonical priority, got %q", task.Priority)
	}
	if task.Progress != 50 || task.Status != model.StatusInProgress {
		t.Errorf("expected progress from checklist, got (%d, %q)", task.Progress, task.Status)
	}
	if len(f.events.keys) != 1 || f.events.keys[0] != "task.created" {
		t.Errorf("expected task.created event, got %v", f.events.keys)
	}
}

func TestCreate_DefaultsAndValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	due := f.now.Add(time.Hour)

	task := f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID}})
	if task.Priority != model.PriorityMedium || task.Status != model.StatusPending || task.Progress != 0 {
		t.Errorf("unexpected defaults %+v", task.Task)
	}

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"missing title", CreateInput{DueDate: &due, AssignedTo: []int{f.alice.ID}}},
		{"missing due date", CreateInput{Title: "x", AssignedTo: []int{f.alice.ID}}},
		{"empty assignees", CreateInput{Title: "x", DueDate: &due}},
		{"unknown assignee", CreateInput{Title: "x", DueDate: &due, AssignedTo: []int{999}}},
		{"bad priority", CreateInput{Title: "x", DueDate: &due, AssignedTo: []int{f.alice.ID}, Priority: "urgent"}},
		{"blank checklist item", CreateInput{Title: "x", DueDate: &due, AssignedTo: []int{f.alice.ID}, TodoChecklist: []model.TodoItem{{Text: " "}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.admin, tt.in)
			assertKind(t, err, apperr.KindValidation)
		})
	}
}

func TestCreate_CrossDepartmentAssignmentWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	due := f.now.Add(time.Hour)

	_, err := f.svc.Create(ctx, f.admin, CreateInput{
		Title:      "Mixed",
		DueDate:    &due,
		AssignedTo: []int{f.alice.ID, f.mktgMem.ID},
	})
	assertKind(t, err, apperr.KindValidation)

	list, err := f.svc.List(ctx, f.admin, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Tasks) != 0 || len(f.events.keys) != 0 {
		t.Errorf("expected no write, got %d tasks and events %v", len(list.Tasks), f.events.keys)
	}
}

func TestCreate_MemberForbidden(t *testing.T) {
	f := newFixture(t, nil)
	due := f.now.Add(time.Hour)

	_, err := f.svc.Create(context.Background(), f.alice, CreateInput{Title: "x", DueDate: &due, AssignedTo: []int{f.alice.ID}})
	assertKind(t, err, apperr.KindForbidden)
}

func TestList_Scoping(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.create(t, f.admin, CreateInput{Title: "alice only", AssignedTo: []int{f.alice.ID}})
	f.create(t, f.admin, CreateInput{Title: "bob only", AssignedTo: []int{f.bob.ID}})
	f.create(t, f.admin, CreateInput{Title: "both", AssignedTo: []int{f.alice.ID, f.bob.ID},
		TodoChecklist: []model.TodoItem{{Text: "a", Completed: true}}})
	f.create(t, f.mktgAdm, CreateInput{Title: "marketing", AssignedTo: []int{f.mktgMem.ID}})

	adminList, err := f.svc.List(ctx, f.admin, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(adminList.Tasks) != 3 || adminList.StatusSummary.All != 3 {
		t.Errorf("admin should see the 3 Sales tasks, got %d (summary %+v)", len(adminList.Tasks), adminList.StatusSummary)
	}

	aliceList, err := f.svc.List(ctx, f.alice, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(aliceList.Tasks) != 2 {
		t.Fatalf("alice should see 2 tasks, got %d", len(aliceList.Tasks))
	}
	for _, item := range aliceList.Tasks {
		if item.Department != model.DepartmentSales || !item.IsAssigned(f.alice.ID) {
			t.Errorf("member listing leaked task %d", item.ID)
		}
	}
	if aliceList.Tasks[0].Title != "both" || aliceList.Tasks[0].CompletedTodoCount != 1 {
		t.Errorf("expected newest first with completed count, got %q/%d", aliceList.Tasks[0].Title, aliceList.Tasks[0].CompletedTodoCount)
	}

	completed, err := f.svc.List(ctx, f.alice, "completed")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(completed.Tasks) != 1 {
		t.Errorf("expected 1 completed task, got %d", len(completed.Tasks))
	}
	want := StatusSummary{All: 2, PendingTasks: 1, CompletedTasks: 1}
	if completed.StatusSummary != want {
		t.Errorf("summary must ignore the status filter: got %+v, want %+v", completed.StatusSummary, want)
	}

	_, err = f.svc.List(ctx, f.alice, "done")
	assertKind(t, err, apperr.KindValidation)
}

func TestGet(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID}})

	got, err := f.svc.Get(ctx, f.alice, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AssignedTo[0].Department == nil || *got.AssignedTo[0].Department != model.DepartmentSales {
		t.Error("task detail should carry assignee departments")
	}

	_, err = f.svc.Get(ctx, f.bob, task.ID)
	assertKind(t, err, apperr.KindForbidden)
	_, err = f.svc.Get(ctx, f.mktgAdm, task.ID)
	assertKind(t, err, apperr.KindForbidden)
	_, err = f.svc.Get(ctx, f.mktgAdm, 12345)
	assertKind(t, err, apperr.KindNotFound)
}

func TestUpdate_MergeIfPresent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := f.create(t, f.admin, CreateInput{
		Description: "original",
		AssignedTo:  []int{f.alice.ID},
		Attachments: []string{"http://files/a.pdf"},
	})

	title := "Renamed"
	got, err := f.svc.Update(ctx, f.alice, task.ID, UpdatePatch{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "Renamed" || got.Description != "original" || len(got.Attachments) != 1 {
		t.Errorf("expected only title to change, got %+v", got.Task)
	}

	checklist := []model.TodoItem{{Text: "a", Completed: true}, {Text: "b", Completed: true}}
	got, err = f.svc.Update(ctx, f.alice, task.ID, UpdatePatch{TodoChecklist: &checklist})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Progress != 100 || got.Status != model.StatusCompleted {
		t.Errorf("checklist update should recompute, got (%d, %q)", got.Progress, got.Status)
	}

	assignees := []int{f.bob.ID}
	got, err = f.svc.Update(ctx, f.admin, task.ID, UpdatePatch{AssignedTo: &assignees})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got.Task.AssignedTo) != 1 || got.Task.AssignedTo[0] != f.bob.ID {
		t.Errorf("expected reassignment to bob, got %v", got.Task.AssignedTo)
	}
}

func TestUpdate_CrossDepartmentReassignmentFails(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID}})

	assignees := []int{f.alice.ID, f.mktgMem.ID}
	title := "should not apply"
	_, err := f.svc.Update(ctx, f.admin, task.ID, UpdatePatch{Title: &title, AssignedTo: &assignees})
	assertKind(t, err, apperr.KindValidation)

	stored, _ := f.store.Tasks.FindByID(ctx, task.ID)
	if stored.Title == title || len(stored.AssignedTo) != 1 {
		t.Errorf("failed update partially applied: %+v", stored)
	}
}

func TestUpdate_Forbidden(t *testing.T) {
	f := newFixture(t, nil)
	task := f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID}})

	title := "x"
	_, err := f.svc.Update(context.Background(), f.bob, task.ID, UpdatePatch{Title: &title})
	assertKind(t, err, apperr.KindForbidden)
}

func TestUpdateStatus_CompletedForcesChecklist(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := f.create(t, f.admin, CreateInput{
		AssignedTo:    []int{f.alice.ID},
		TodoChecklist: []model.TodoItem{{Text: "a"}, {Text: "b"}},
	})

	got, err := f.svc.UpdateStatus(ctx, f.alice, task.ID, "Completed")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Progress != 100 || got.Status != model.StatusCompleted {
		t.Errorf("got (%d, %q)", got.Progress, got.Status)
	}
	for _, item := range got.TodoChecklist {
		if !item.Completed {
			t.Error("every item should be completed")
		}
	}
}

func TestUpdateStatus_UnassignedMemberLeavesTaskUnchanged(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID}})
	f.events.keys = nil

	_, err := f.svc.UpdateStatus(ctx, f.bob, task.ID, "Completed")
	assertKind(t, err, apperr.KindForbidden)

	stored, _ := f.store.Tasks.FindByID(ctx, task.ID)
	if stored.Status != model.StatusPending || stored.Progress != 0 {
		t.Errorf("task changed: (%d, %q)", stored.Progress, stored.Status)
	}
	if len(f.events.keys) != 0 {
		t.Errorf("no event expected, got %v", f.events.keys)
	}
}

func TestUpdateStatus_InvalidAndMissing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID}})

	_, err := f.svc.UpdateStatus(ctx, f.alice, task.ID, "archived")
	assertKind(t, err, apperr.KindValidation)
	_, err = f.svc.UpdateStatus(ctx, f.alice, 999, "Pending")
	assertKind(t, err, apperr.KindNotFound)

	_, err = f.svc.UpdateStatus(ctx, f.alice, task.ID, "")
	assertKind(t, err, apperr.KindValidation)
	if unchanged, err := f.svc.Get(ctx, f.alice, task.ID); err != nil || unchanged.Status != model.StatusPending {
		t.Errorf("empty status must leave the task alone, got %v / %v", unchanged, err)
	}

	got, err := f.svc.UpdateStatus(ctx, f.alice, task.ID, "in progress")
	if err != nil || got.Status != model.StatusInProgress {
		t.Errorf("expected In Progress, got %v / %v", got, err)
	}
}

func TestUpdateChecklist(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID}})
	items := []model.TodoItem{{Text: "a", Completed: true}, {Text: "b", Completed: false}}

	first, err := f.svc.UpdateChecklist(ctx, f.alice, task.ID, items)
	if err != nil {
		t.Fatalf("UpdateChecklist: %v", err)
	}
	if first.Progress != 50 || first.Status != model.StatusInProgress {
		t.Errorf("got (%d, %q), want (50, In Progress)", first.Progress, first.Status)
	}
	if len(first.AssignedTo) != 1 || first.AssignedTo[0].Email != "alice@example.com" {
		t.Errorf("expected re-expanded assignees, got %+v", first.AssignedTo)
	}

	second, err := f.svc.UpdateChecklist(ctx, f.alice, task.ID, items)
	if err != nil {
		t.Fatalf("UpdateChecklist: %v", err)
	}
	if second.Progress != first.Progress || second.Status != first.Status {
		t.Error("repeating the same checklist must be idempotent")
	}

	empty, err := f.svc.UpdateChecklist(ctx, f.admin, task.ID, nil)
	if err != nil {
		t.Fatalf("UpdateChecklist: %v", err)
	}
	if empty.Progress != 0 || empty.Status != model.StatusPending {
		t.Errorf("empty checklist should reset, got (%d, %q)", empty.Progress, empty.Status)
	}

	_, err = f.svc.UpdateChecklist(ctx, f.bob, task.ID, items)
	assertKind(t, err, apperr.KindForbidden)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID}})

	assertKind(t, f.svc.Delete(ctx, f.mktgAdm, task.ID), apperr.KindForbidden)
	assertKind(t, f.svc.Delete(ctx, f.alice, task.ID), apperr.KindForbidden)

	if err := f.svc.Delete(ctx, f.admin, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	assertKind(t, f.svc.Delete(ctx, f.admin, task.ID), apperr.KindNotFound)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	past := f.now.Add(-24 * time.Hour)

	f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID}, Priority: "high", DueDate: &past})
	f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID},
		TodoChecklist: []model.TodoItem{{Text: "x", Completed: true}}, DueDate: &past})
	f.create(t, f.admin, CreateInput{AssignedTo: []int{f.bob.ID}, Priority: "low"})
	f.create(t, f.mktgAdm, CreateInput{AssignedTo: []int{f.mktgMem.ID}})

	d, err := f.svc.Dashboard(ctx, f.admin)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	wantStats := Statistics{TotalTasks: 3, PendingTasks: 2, CompletedTasks: 1, OverdueTasks: 1}
	if d.Statistics != wantStats {
		t.Errorf("statistics = %+v, want %+v", d.Statistics, wantStats)
	}
	wantDist := map[string]int{"Pending": 2, "InProgress": 0, "Completed": 1, "All": 3}
	for k, v := range wantDist {
		if got, ok := d.Charts.TaskDistribution[k]; !ok || got != v {
			t.Errorf("distribution[%s] = %d (present=%v), want %d", k, got, ok, v)
		}
	}
	wantPrio := map[string]int{"low": 1, "medium": 1, "high": 1}
	for k, v := range wantPrio {
		if d.Charts.TaskPriorityLevels[k] != v {
			t.Errorf("priority[%s] = %d, want %d", k, d.Charts.TaskPriorityLevels[k], v)
		}
	}
	if len(d.RecentTasks) != 3 {
		t.Errorf("expected 3 recent tasks, got %d", len(d.RecentTasks))
	}

	_, err = f.svc.Dashboard(ctx, f.alice)
	assertKind(t, err, apperr.KindForbidden)

	mine, err := f.svc.UserDashboard(ctx, f.alice)
	if err != nil {
		t.Fatalf("UserDashboard: %v", err)
	}
	if mine.Statistics.TotalTasks != 2 || mine.Statistics.OverdueTasks != 1 {
		t.Errorf("unexpected personal statistics %+v", mine.Statistics)
	}
	if mine.Charts.TaskDistribution["InProgress"] != 0 || mine.Charts.TaskPriorityLevels["low"] != 0 {
		t.Error("absent keys must be present with zero")
	}
}

func TestDashboard_RecentLimit(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 12; i++ {
		f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID}})
	}

	d, err := f.svc.Dashboard(context.Background(), f.admin)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(d.RecentTasks) != 10 {
		t.Fatalf("expected 10 recent tasks, got %d", len(d.RecentTasks))
	}
	if d.RecentTasks[0].ID != 12 {
		t.Errorf("expected newest task first, got %d", d.RecentTasks[0].ID)
	}
}

func TestDashboard_CacheInvalidatedOnWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f := newFixture(t, cache.NewDashboardCache(client, time.Minute, zap.NewNop()))
	ctx := context.Background()

	before, err := f.svc.UserDashboard(ctx, f.alice)
	if err != nil {
		t.Fatalf("UserDashboard: %v", err)
	}
	if before.Statistics.TotalTasks != 0 {
		t.Fatalf("expected empty dashboard, got %+v", before.Statistics)
	}
	if !mr.Exists(cache.UserKey(model.DepartmentSales, f.alice.ID)) {
		t.Fatal("expected dashboard to be cached")
	}

	f.create(t, f.admin, CreateInput{AssignedTo: []int{f.alice.ID}})

	after, err := f.svc.UserDashboard(ctx, f.alice)
	if err != nil {
		t.Fatalf("UserDashboard: %v", err)
	}
	if after.Statistics.TotalTasks != 1 {
		t.Errorf("expected invalidated dashboard to show the new task, got %+v", after.Statistics)
	}
}
