package task

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
	"github.com/fastygo/tasktracker/repository/memory"
)

const (
	user1 int64 = 1
	user2 int64 = 2
)

func ptr[T any](v T) *T { return &v }

type recordingJournal struct {
	mu     sync.Mutex
	events []domain.TaskEvent
}

func (j *recordingJournal) Record(_ context.Context, event domain.TaskEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
	return nil
}

func (j *recordingJournal) History(_ context.Context, taskID int64, _ int) ([]domain.TaskEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []domain.TaskEvent
	for _, e := range j.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (j *recordingJournal) names() []domain.TaskEventName {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]domain.TaskEventName, 0, len(j.events))
	for _, e := range j.events {
		out = append(out, e.Name)
	}
	return out
}

type fixture struct {
	uc      *UseCase
	repo    *memory.TaskRepository
	journal *recordingJournal
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.NewTaskRepository()
	base := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	tick := 0
	repo.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
	journal := &recordingJournal{}
	uc := New(repo, journal, nil)
	f := &fixture{uc: uc, repo: repo, journal: journal, now: base.Add(time.Hour)}
	uc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) create(t *testing.T, userID int64, title string, priority int) *domain.Task {
	t.Helper()
	res, err := f.uc.Create(context.Background(), userID, NewTask{Title: title, Description: title + " description", Priority: priority})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	return res.Data.(*domain.Task)
}

func (f *fixture) createSub(t *testing.T, userID, parentID int64, title string, priority int) *domain.Task {
	t.Helper()
	res, err := f.uc.CreateSubtask(context.Background(), userID, NewTask{ParentID: parentID, Title: title, Priority: priority})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	return res.Data.(*domain.Task)
}

func taskIDs(t *testing.T, res Result) []int64 {
	t.Helper()
	require.Equal(t, http.StatusOK, res.Status)
	tasks, ok := res.Data.([]domain.Task)
	require.True(t, ok, "expected task list, got %T", res.Data)
	out := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}

func TestUseCase_CompletionScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.create(t, user1, "Buy milk", 2)
	assert.Equal(t, domain.StatusTodo, parent.Status)
	assert.Nil(t, parent.ParentID)

	sub := f.createSub(t, user1, parent.ID, "Pick 2%", 1)
	require.NotNil(t, sub.ParentID)
	assert.Equal(t, parent.ID, *sub.ParentID)

	res, err := f.uc.Complete(ctx, user1, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, Message{Message: "this task cannot be completed"}, res.Data)

	res, err = f.uc.Complete(ctx, user1, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)

	res, err = f.uc.Complete(ctx, user1, parent.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	done := res.Data.(*domain.Task)
	assert.Equal(t, domain.StatusDone, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(f.now))

	assert.Equal(t, []domain.TaskEventName{
		domain.EventTaskCreated,
		domain.EventTaskCreated,
		domain.EventTaskCompleted,
		domain.EventTaskCompleted,
	}, f.journal.names())
}

func TestUseCase_CompleteRefusesForeignUser(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, user1, "Buy milk", 2)

	res, err := f.uc.Complete(context.Background(), user2, task.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, res.Status)

	stored, err := f.repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTodo, stored.Status)
	assert.Nil(t, stored.CompletedAt)
}

func TestUseCase_UpdateByForeignUserChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, user1, "Buy milk", 2)

	res, err := f.uc.Update(ctx, user2, UpdateTask{TaskID: task.ID, Patch: domain.TaskPatch{Title: ptr("mine now"), Priority: ptr(5)}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, Message{Message: "access to changing the task is blocked"}, res.Data)

	stored, err := f.repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", stored.Title)
	assert.Equal(t, 2, stored.Priority)
}

func TestUseCase_UpdatePartialPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, user1, "Buy milk", 2)

	res, err := f.uc.Update(ctx, user1, UpdateTask{TaskID: task.ID, Patch: domain.TaskPatch{Priority: ptr(5)}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)

	updated := res.Data.(*domain.Task)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.Equal(t, "Buy milk description", updated.Description)
	assert.Equal(t, 5, updated.Priority)
	assert.Equal(t, domain.StatusTodo, updated.Status)
	assert.Nil(t, updated.CompletedAt)
	assert.Equal(t, user1, updated.UserID)
}

func TestUseCase_BlankTitlesAreRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.create(t, user1, "Buy milk", 2)
	before := f.repo.Len()

	_, err := f.uc.Create(ctx, user1, NewTask{Title: "   ", Description: "x", Priority: 2})
	assert.ErrorIs(t, err, domain.ErrBlankTitle)

	_, err = f.uc.CreateSubtask(ctx, user1, NewTask{ParentID: parent.ID, Title: "\t\n", Description: "x", Priority: 2})
	assert.ErrorIs(t, err, domain.ErrBlankTitle)
	assert.Equal(t, before, f.repo.Len(), "nothing is stored")

	_, err = f.uc.Update(ctx, user1, UpdateTask{TaskID: parent.ID, Patch: domain.TaskPatch{Title: ptr("  ")}})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	stored, err := f.repo.GetByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", stored.Title)
	assert.Equal(t, []domain.TaskEventName{domain.EventTaskCreated}, f.journal.names())
}

func TestUseCase_TitlesAreTrimmedOnEveryWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, user1, "  Buy milk  ", 2)
	assert.Equal(t, "Buy milk", task.Title)

	sub := f.createSub(t, user1, task.ID, " Go to the store ", 1)
	assert.Equal(t, "Go to the store", sub.Title)

	res, err := f.uc.Update(ctx, user1, UpdateTask{TaskID: task.ID, Patch: domain.TaskPatch{Title: ptr(" Buy oat milk ")}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Buy oat milk", res.Data.(*domain.Task).Title)
}

func TestUseCase_UpdateMissingTaskIsForbidden(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.Update(context.Background(), user1, UpdateTask{TaskID: 404})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, res.Status)
}

func TestUseCase_DeleteDoneTaskIsRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, user1, "Buy milk", 2)

	res, err := f.uc.Complete(ctx, user1, task.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)

	res, err = f.uc.Delete(ctx, user1, task.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, Message{Message: "this task cannot be deleted"}, res.Data)

	_, err = f.repo.GetByID(ctx, task.ID)
	assert.NoError(t, err, "task must still be stored")
}

func TestUseCase_DeleteCascadesToSubtasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.create(t, user1, "Buy milk", 2)
	a := f.createSub(t, user1, parent.ID, "Pick 2%", 1)
	b := f.createSub(t, user1, parent.ID, "Pick oat", 1)
	keep := f.create(t, user1, "Walk dog", 3)

	res, err := f.uc.Delete(ctx, user2, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, res.Status)

	res, err = f.uc.Delete(ctx, user1, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, Result{Data: true, Status: http.StatusOK}, res)

	for _, id := range []int64{parent.ID, a.ID, b.ID} {
		_, err := f.repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	}
	_, err = f.repo.GetByID(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestUseCase_CreateSubtaskValidatesParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.create(t, user1, "Buy milk", 2)
	sub := f.createSub(t, user1, parent.ID, "Pick 2%", 1)

	cases := []struct {
		name     string
		userID   int64
		parentID int64
	}{
		{name: "missing parent", userID: user1, parentID: 999},
		{name: "foreign parent", userID: user2, parentID: parent.ID},
		{name: "nested subtask", userID: user1, parentID: sub.ID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := f.repo.Len()
			res, err := f.uc.CreateSubtask(ctx, tc.userID, NewTask{ParentID: tc.parentID, Title: "x", Priority: 1})
			require.NoError(t, err)
			assert.Equal(t, http.StatusForbidden, res.Status)
			assert.Equal(t, before, f.repo.Len())
		})
	}
}

func TestUseCase_ListEmptyIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, user1, "Buy milk", 2)

	res, err := f.uc.ListTopLevel(ctx, Filter{Status: "done"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, Message{Message: "tasks not found"}, res.Data)

	res, err = f.uc.ListForUser(ctx, user2, Filter{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res, err = f.uc.ListSubtasksOf(ctx, 12345, Filter{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestUseCase_ListScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	milk := f.create(t, user1, "Buy milk", 2)
	dog := f.create(t, user2, "Walk dog", 4)
	sub := f.createSub(t, user1, milk.ID, "Pick 2%", 1)

	res, err := f.uc.ListTopLevel(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{dog.ID, milk.ID}, taskIDs(t, res))

	res, err = f.uc.ListForUser(ctx, user1, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{milk.ID}, taskIDs(t, res))

	res, err = f.uc.ListSubtasksOf(ctx, milk.ID, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{sub.ID}, taskIDs(t, res))
}

func TestUseCase_FiltersIntersect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, p := range []int{1, 2, 3, 4, 5, 3, 4} {
		task := f.create(t, user1, "Task", p)
		if i%2 == 0 {
			res, err := f.uc.Complete(ctx, user1, task.ID)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, res.Status)
		}
	}

	idSet := func(filter Filter) map[int64]bool {
		res, err := f.uc.ListTopLevel(ctx, filter)
		require.NoError(t, err)
		set := map[int64]bool{}
		if res.Status != http.StatusOK {
			return set
		}
		for _, id := range taskIDs(t, res) {
			set[id] = true
		}
		return set
	}

	byStatus := idSet(Filter{Status: "todo"})
	byPriority := idSet(Filter{PriorityMin: ptr(3)})
	combined := idSet(Filter{Status: "todo", PriorityMin: ptr(3)})

	want := map[int64]bool{}
	for id := range byStatus {
		if byPriority[id] {
			want[id] = true
		}
	}
	assert.Equal(t, want, combined)
	assert.NotEmpty(t, combined)
}

func TestUseCase_ListOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	low := f.create(t, user1, "low", 1)
	high := f.create(t, user1, "high", 5)
	mid := f.create(t, user1, "mid", 3)

	res, err := f.uc.ListForUser(ctx, user1, Filter{OrderBy: "priority", OrderDirection: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []int64{low.ID, mid.ID, high.ID}, taskIDs(t, res))

	res, err = f.uc.ListForUser(ctx, user1, Filter{OrderBy: "created_at", OrderDirection: "asc"})
	require.NoError(t, err)
	got := taskIDs(t, res)
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i] < got[j] }))
}

func TestUseCase_OpenTasksSortLastByCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := f.create(t, user1, "open", 3)
	first := f.create(t, user1, "first", 3)
	second := f.create(t, user1, "second", 3)

	res, err := f.uc.Complete(ctx, user1, first.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	f.now = f.now.Add(time.Minute)
	res, err = f.uc.Complete(ctx, user1, second.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)

	res, err = f.uc.ListForUser(ctx, user1, Filter{OrderBy: "completedAt", OrderDirection: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, second.ID, open.ID}, taskIDs(t, res))

	res, err = f.uc.ListForUser(ctx, user1, Filter{OrderBy: "completedAt", OrderDirection: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, first.ID, open.ID}, taskIDs(t, res))
}

func TestUseCase_TitleSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	milk := f.create(t, user1, "Buy milk", 2)
	f.create(t, user1, "Walk dog", 4)

	res, err := f.uc.ListTopLevel(ctx, Filter{Title: "mil"})
	require.NoError(t, err)
	assert.Equal(t, []int64{milk.ID}, taskIDs(t, res))
}

func TestUseCase_GetByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.create(t, user1, "Buy milk", 2)
	sub := f.createSub(t, user1, parent.ID, "Pick 2%", 1)

	res, err := f.uc.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, sub.ID, res.Data.(*domain.Task).ID)

	res, err = f.uc.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, Message{Message: "task or subtask not found"}, res.Data)
}

func TestUseCase_History(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, user1, "Buy milk", 2)
	_, err := f.uc.Update(ctx, user1, UpdateTask{TaskID: task.ID, Patch: domain.TaskPatch{Priority: ptr(3)}})
	require.NoError(t, err)

	res, err := f.uc.History(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	events := res.Data.([]domain.TaskEvent)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTaskCreated, events[0].Name)
	assert.Equal(t, domain.EventTaskUpdated, events[1].Name)

	res, err = f.uc.History(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

type failingRepo struct {
	repository.TaskRepository
}

var errStorageDown = errors.New("connection refused")

func (failingRepo) Query(context.Context, repository.TaskQuery) ([]domain.Task, error) {
	return nil, errStorageDown
}

func (failingRepo) Atomic(context.Context, func(context.Context, repository.TaskRepository) error) error {
	return errStorageDown
}

func TestUseCase_StorageFailuresPropagate(t *testing.T) {
	uc := New(failingRepo{}, nil, nil)
	ctx := context.Background()

	_, err := uc.ListTopLevel(ctx, Filter{})
	assert.ErrorIs(t, err, errStorageDown)

	res, err := uc.Complete(ctx, user1, 1)
	assert.ErrorIs(t, err, errStorageDown)
	assert.Equal(t, Result{}, res)
}
