package tasklist

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/example/tidytasks/domain/tasklist"
	"github.com/example/tidytasks/domain/user"
	"github.com/example/tidytasks/events"
	"github.com/example/tidytasks/internal/validator"
	"github.com/example/tidytasks/modules/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type dbUserDirectory struct {
	db *gorm.DB
}

func (d dbUserDirectory) GetUser(ctx context.Context, userID uint) (*user.User, error) {
	var u user.User
	if err := d.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	assigned  []events.TaskAssignedEvent
	completed []events.TaskCompletedEvent
	deleted   []events.TaskDeletedEvent
}

func (p *recordingPublisher) TaskAssigned(evt events.TaskAssignedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assigned = append(p.assigned, evt)
	return nil
}

func (p *recordingPublisher) TaskCompleted(evt events.TaskCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, evt)
	return nil
}

func (p *recordingPublisher) TaskDeleted(evt events.TaskDeletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, evt)
	return nil
}

type serviceFixture struct {
	db        *gorm.DB
	svc       *Service
	publisher *recordingPublisher
	owner     *user.User
	other     *user.User
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := setupTestDB(t)
	publisher := &recordingPublisher{}
	svc := NewService(NewListRepository(db), NewTaskRepository(db), dbUserDirectory{db: db}, publisher, zap.NewNop())
	return &serviceFixture{
		db:        db,
		svc:       svc,
		publisher: publisher,
		owner:     createTestUser(t, db, "owner"),
		other:     createTestUser(t, db, "other"),
	}
}

func (f *serviceFixture) newList(t *testing.T, name string) *TaskListResponse {
	t.Helper()
	list, err := f.svc.CreateList(context.Background(), ListInput{Name: name})
	require.NoError(t, err)
	return list
}

func (f *serviceFixture) newTask(t *testing.T, listID uint, title string, priority domain.Priority) *TaskResponse {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), CreateTaskInput{
		ListID:    listID,
		Title:     title,
		Priority:  &priority,
		CreatedBy: f.owner.ID,
	})
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T {
	return &v
}

func TestService_CreateList(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	list, err := f.svc.CreateList(ctx, ListInput{
		Name:     "  Groceries  ",
		ColorTag: ptr(domain.ColorGreen),
		Category: ptr("home"),
	})
	require.NoError(t, err)

	assert.NotZero(t, list.ID)
	assert.Equal(t, "Groceries", list.Name, "name is stored trimmed")
	assert.Equal(t, domain.ColorGreen, *list.ColorTag)
	assert.NotNil(t, list.Tasks)
	assert.Empty(t, list.Tasks)

	persisted, err := f.svc.GetList(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", persisted.Name)
	assert.Empty(t, persisted.Tasks)
}

func TestService_CreateListValidation(t *testing.T) {
	f := newServiceFixture(t)

	tests := []struct {
		name  string
		input ListInput
		field string
	}{
		{"blank name", ListInput{Name: "    "}, "name"},
		{"short name", ListInput{Name: "ab"}, "name"},
		{"long name", ListInput{Name: "this name is definitely longer than fifty characters"}, "name"},
		{"unknown color", ListInput{Name: "Valid", ColorTag: ptr(domain.ColorTag("pink"))}, "color_tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateList(context.Background(), tt.input)
			require.ErrorIs(t, err, validator.ErrValidation)

			var verr *validator.Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	var count int64
	f.db.Model(&domain.TaskList{}).Count(&count)
	assert.Zero(t, count, "no list persisted on validation failure")
}

func TestService_GetListNotFound(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.GetList(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrListNotFound)
}

func TestService_UpdateList(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	list, err := f.svc.CreateList(ctx, ListInput{Name: "Original", ColorTag: ptr(domain.ColorRed)})
	require.NoError(t, err)
	f.newTask(t, list.ID, "keep me", domain.PriorityLow)

	updated, err := f.svc.UpdateList(ctx, list.ID, ListInput{Name: "Renamed", Category: ptr("work")})
	require.NoError(t, err)

	assert.Equal(t, list.ID, updated.ID, "id unchanged")
	assert.Equal(t, "Renamed", updated.Name)
	assert.Nil(t, updated.ColorTag, "omitted color is cleared by full replace")
	assert.Equal(t, "work", *updated.Category)
	assert.Len(t, updated.Tasks, 1, "tasks survive a list update")

	_, err = f.svc.UpdateList(ctx, 999, ListInput{Name: "Missing"})
	assert.ErrorIs(t, err, domain.ErrListNotFound)

	_, err = f.svc.UpdateList(ctx, list.ID, ListInput{Name: " "})
	assert.ErrorIs(t, err, validator.ErrValidation)
}

func TestService_DeleteList(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	list := f.newList(t, "Doomed")
	task := f.newTask(t, list.ID, "goes too", domain.PriorityMedium)
	other := f.newTask(t, list.ID, "and this", domain.PriorityLow)

	require.NoError(t, f.svc.DeleteList(ctx, list.ID))

	require.Len(t, f.publisher.deleted, 2, "one TaskDeleted per cascaded task")
	assert.Equal(t, task.ID, f.publisher.deleted[0].TaskID)
	assert.Equal(t, other.ID, f.publisher.deleted[1].TaskID)
	assert.Equal(t, list.ID, f.publisher.deleted[0].ListID)

	_, err := f.svc.GetList(ctx, list.ID)
	assert.ErrorIs(t, err, domain.ErrListNotFound)
	_, err = f.svc.GetTask(ctx, list.ID, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	assert.ErrorIs(t, f.svc.DeleteList(ctx, list.ID), domain.ErrListNotFound)
}

func TestService_CreateTask(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	list := f.newList(t, "Chores")

	task, err := f.svc.CreateTask(ctx, CreateTaskInput{
		ListID:    list.ID,
		Title:     "Wash dishes",
		CreatedBy: f.owner.ID,
	})
	require.NoError(t, err)

	assert.NotZero(t, task.ID)
	assert.Equal(t, domain.PriorityMedium, task.Priority, "default priority")
	assert.False(t, task.IsDone)
	assert.Nil(t, task.AssignedTo)
	assert.Equal(t, list.ID, task.ListID)
	assert.Equal(t, f.owner.ID, task.CreatedBy)
	assert.False(t, task.CreatedAt.IsZero())
	assert.Empty(t, f.publisher.assigned, "no assignee, no notification")
}

func TestService_CreateTaskMissingList(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.CreateTask(context.Background(), CreateTaskInput{
		ListID:    4242,
		Title:     "Nowhere",
		CreatedBy: f.owner.ID,
	})
	require.ErrorIs(t, err, domain.ErrListNotFound)

	var count int64
	f.db.Model(&domain.Task{}).Count(&count)
	assert.Zero(t, count, "no row created")
}

func TestService_CreateTaskAssignee(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	list := f.newList(t, "Team")

	t.Run("real assignee notifies", func(t *testing.T) {
		task, err := f.svc.CreateTask(ctx, CreateTaskInput{
			ListID:     list.ID,
			Title:      "Review PR",
			AssignedTo: ptr(f.other.ID),
			CreatedBy:  f.owner.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, task.AssignedTo)
		assert.Equal(t, f.other.ID, *task.AssignedTo)

		require.Len(t, f.publisher.assigned, 1)
		evt := f.publisher.assigned[0]
		assert.Equal(t, task.ID, evt.TaskID)
		assert.Equal(t, f.other.Email, evt.Email)
		assert.Equal(t, f.owner.ID, evt.AssignedBy)
	})

	t.Run("zero means unassigned", func(t *testing.T) {
		task, err := f.svc.CreateTask(ctx, CreateTaskInput{
			ListID:     list.ID,
			Title:      "Nobody's job",
			AssignedTo: ptr(uint(0)),
			CreatedBy:  f.owner.ID,
		})
		require.NoError(t, err)
		assert.Nil(t, task.AssignedTo)
	})

	t.Run("missing assignee", func(t *testing.T) {
		_, err := f.svc.CreateTask(ctx, CreateTaskInput{
			ListID:     list.ID,
			Title:      "Ghost work",
			AssignedTo: ptr(uint(9999)),
			CreatedBy:  f.owner.ID,
		})
		assert.ErrorIs(t, err, domain.ErrAssigneeNotFound)
	})
}

func TestService_CreateTaskValidation(t *testing.T) {
	f := newServiceFixture(t)
	list := f.newList(t, "Checks")
	long := strings.Repeat("x", 1001)

	tests := []struct {
		name  string
		input CreateTaskInput
		field string
	}{
		{"blank title", CreateTaskInput{ListID: list.ID, Title: "   "}, "title"},
		{"empty title", CreateTaskInput{ListID: list.ID, Title: ""}, "title"},
		{"long description", CreateTaskInput{ListID: list.ID, Title: "ok", Description: ptr(long)}, "description"},
		{"bad priority", CreateTaskInput{ListID: list.ID, Title: "ok", Priority: ptr(domain.Priority("urgent"))}, "priority"},
		{"empty priority", CreateTaskInput{ListID: list.ID, Title: "ok", Priority: ptr(domain.Priority(""))}, "priority"},
		{"long title", CreateTaskInput{ListID: list.ID, Title: strings.Repeat("t", 201)}, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.CreatedBy = f.owner.ID
			_, err := f.svc.CreateTask(context.Background(), tt.input)
			require.ErrorIs(t, err, validator.ErrValidation)

			var verr *validator.Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestService_UpdateTaskPartial(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	list := f.newList(t, "Partial")

	created, err := f.svc.CreateTask(ctx, CreateTaskInput{
		ListID:      list.ID,
		Title:       "Original",
		Description: ptr("keep this"),
		Priority:    ptr(domain.PriorityLow),
		CreatedBy:   f.owner.ID,
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	updated, err := f.svc.UpdateTask(ctx, list.ID, created.ID, UpdateTaskInput{
		Priority: ptr(domain.PriorityHigh),
	})
	require.NoError(t, err)

	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, "keep this", *updated.Description)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, list.ID, updated.ListID)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updated_at refreshed")

	_, err = f.svc.UpdateTask(ctx, list.ID, created.ID, UpdateTaskInput{Title: ptr("  ")})
	assert.ErrorIs(t, err, validator.ErrValidation, "blank title rejected on update")
}

func TestService_UpdateTaskAssignee(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	list := f.newList(t, "Assign")
	task := f.newTask(t, list.ID, "Hand off", domain.PriorityMedium)

	assigned, err := f.svc.UpdateTask(ctx, list.ID, task.ID, UpdateTaskInput{AssignedTo: ptr(f.other.ID), UpdatedBy: f.owner.ID})
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, f.other.ID, *assigned.AssignedTo)
	assert.Len(t, f.publisher.assigned, 1)

	_, err = f.svc.UpdateTask(ctx, list.ID, task.ID, UpdateTaskInput{AssignedTo: ptr(f.other.ID)})
	require.NoError(t, err)
	assert.Len(t, f.publisher.assigned, 1, "re-assigning the same user does not notify again")

	cleared, err := f.svc.UpdateTask(ctx, list.ID, task.ID, UpdateTaskInput{AssignedTo: ptr(uint(0))})
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedTo, "0 unassigns")

	_, err = f.svc.UpdateTask(ctx, list.ID, task.ID, UpdateTaskInput{AssignedTo: ptr(uint(777))})
	assert.ErrorIs(t, err, domain.ErrAssigneeNotFound)
}

func TestService_UpdateTaskNotFound(t *testing.T) {
	f := newServiceFixture(t)
	list := f.newList(t, "Empty")

	_, err := f.svc.UpdateTask(context.Background(), list.ID, 31337, UpdateTaskInput{Title: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestService_DeleteTask(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	list := f.newList(t, "Trash")
	task := f.newTask(t, list.ID, "Remove me", domain.PriorityLow)

	require.NoError(t, f.svc.DeleteTask(ctx, list.ID, task.ID))
	require.Len(t, f.publisher.deleted, 1)
	assert.Equal(t, task.ID, f.publisher.deleted[0].TaskID)

	assert.ErrorIs(t, f.svc.DeleteTask(ctx, list.ID, task.ID), domain.ErrTaskNotFound)
	assert.Len(t, f.publisher.deleted, 1)
}

func TestService_SetTaskStatusIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	list := f.newList(t, "Status")
	task := f.newTask(t, list.ID, "Finish", domain.PriorityMedium)

	first, err := f.svc.SetTaskStatus(ctx, list.ID, task.ID, true)
	require.NoError(t, err)
	assert.True(t, first.IsDone)

	second, err := f.svc.SetTaskStatus(ctx, list.ID, task.ID, true)
	require.NoError(t, err)
	assert.True(t, second.IsDone)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.Priority, second.Priority)

	assert.Len(t, f.publisher.completed, 1, "completion announced once")

	reopened, err := f.svc.SetTaskStatus(ctx, list.ID, task.ID, false)
	require.NoError(t, err)
	assert.False(t, reopened.IsDone)

	_, err = f.svc.SetTaskStatus(ctx, list.ID, 999, true)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestService_ListTasksCompletion(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	empty := f.newList(t, "Empty")
	page, err := f.svc.ListTasks(ctx, TaskFilter{ListID: empty.ID})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)
	assert.Equal(t, 0.0, page.CompletionPercentage)

	list := f.newList(t, "Mixed")
	t1 := f.newTask(t, list.ID, "high one", domain.PriorityHigh)
	f.newTask(t, list.ID, "high two", domain.PriorityHigh)
	t3 := f.newTask(t, list.ID, "low one", domain.PriorityLow)
	f.newTask(t, list.ID, "medium one", domain.PriorityMedium)
	_, err = f.svc.SetTaskStatus(ctx, list.ID, t1.ID, true)
	require.NoError(t, err)
	_, err = f.svc.SetTaskStatus(ctx, list.ID, t3.ID, true)
	require.NoError(t, err)

	page, err = f.svc.ListTasks(ctx, TaskFilter{ListID: list.ID})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 4)
	assert.Equal(t, 50.0, page.CompletionPercentage)

	page, err = f.svc.ListTasks(ctx, TaskFilter{ListID: list.ID, Priority: ptr(domain.PriorityHigh)})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 2)
	for _, task := range page.Tasks {
		assert.Equal(t, domain.PriorityHigh, task.Priority)
	}
	assert.Equal(t, 50.0, page.CompletionPercentage, "percentage ignores filters")

	page, err = f.svc.ListTasks(ctx, TaskFilter{ListID: list.ID, IsDone: ptr(false), Priority: ptr(domain.PriorityHigh)})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "high two", page.Tasks[0].Title)

	page, err = f.svc.ListTasks(ctx, TaskFilter{ListID: 9999})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)
	assert.Equal(t, 0.0, page.CompletionPercentage)

	_, err = f.svc.ListTasks(ctx, TaskFilter{ListID: list.ID, Priority: ptr(domain.Priority("urgent"))})
	assert.ErrorIs(t, err, validator.ErrValidation)
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"nats: task list not found", domain.ErrListNotFound},
		{"task not found", domain.ErrTaskNotFound},
		{"assignee not found", domain.ErrAssigneeNotFound},
		{"task list creation failed", domain.ErrListCreation},
		{"failed to create task: integrity constraint violated: FOREIGN KEY", domain.ErrIntegrity},
		{validator.FieldError("title", "must not be blank").Error(), validator.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.ErrorIs(t, mapServiceError(textError(tt.msg)), tt.want)
		})
	}
}

type textError string

func (e textError) Error() string { return string(e) }
