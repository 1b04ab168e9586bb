package tasklist

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/tidytasks/domain/tasklist"
	"gorm.io/gorm"
)

// ListRepository provides access to task list storage.
type ListRepository struct {
	db *gorm.DB
}

// NewListRepository creates a new task list repository.
func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

// Create saves a new task list.
func (r *ListRepository) Create(ctx context.Context, list *domain.TaskList) error {
	if err := r.db.WithContext(ctx).Omit("Tasks").Create(list).Error; err != nil {
		return fmt.Errorf("%w: %v", domain.ErrListCreation, err)
	}
	return nil
}

// FindByID retrieves a task list, optionally with its tasks ordered by id.
func (r *ListRepository) FindByID(ctx context.Context, id uint, withTasks bool) (*domain.TaskList, error) {
	q := r.db.WithContext(ctx)
	if withTasks {
		q = q.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("tasks.id ASC")
		})
	}

	var list domain.TaskList
	if err := q.First(&list, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrListNotFound
		}
		return nil, fmt.Errorf("failed to find task list: %w", err)
	}
	return &list, nil
}

// Exists reports whether a task list with id exists.
func (r *ListRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.TaskList{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check task list: %w", err)
	}
	return count > 0, nil
}

// Update replaces the name, color tag and category of a task list.
func (r *ListRepository) Update(ctx context.Context, list *domain.TaskList) error {
	result := r.db.WithContext(ctx).Model(&domain.TaskList{}).
		Where("id = ?", list.ID).
		Updates(map[string]any{
			"name":      list.Name,
			"color_tag": list.ColorTag,
			"category":  list.Category,
		})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task list: %w", err)
	}
	if result.RowsAffected == 0 {
		return domain.ErrListNotFound
	}
	return nil
}

// Delete removes a task list and all of its tasks in one transaction and
// returns the ids of the removed tasks.
func (r *ListRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	var taskIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Task{}).Where("list_id = ?", id).Order("id").Pluck("id", &taskIDs).Error; err != nil {
			return fmt.Errorf("failed to collect tasks of list: %w", err)
		}
		if err := tx.Where("list_id = ?", id).Delete(&domain.Task{}).Error; err != nil {
			return fmt.Errorf("failed to delete tasks of list: %w", err)
		}
		result := tx.Delete(&domain.TaskList{}, "id = ?", id)
		if err := result.Error; err != nil {
			return fmt.Errorf("failed to delete task list: %w", err)
		}
		if result.RowsAffected == 0 {
			return domain.ErrListNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taskIDs, nil
}

// TaskRepository provides access to task storage. Every lookup is scoped
// to the owning list.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create saves a new task.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", translateIntegrity(err))
	}
	return nil
}

// FindByID retrieves a task by list and task id.
func (r *TaskRepository) FindByID(ctx context.Context, listID, taskID uint) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ? AND list_id = ?", taskID, listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// Update applies column updates to a task.
func (r *TaskRepository) Update(ctx context.Context, listID, taskID uint, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND list_id = ?", taskID, listID).
		Updates(fields)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", translateIntegrity(err))
	}
	if result.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete removes a task and reports whether one was found.
func (r *TaskRepository) Delete(ctx context.Context, listID, taskID uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ? AND list_id = ?", taskID, listID)
	if err := result.Error; err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return result.RowsAffected > 0, nil
}

// List returns the tasks of a list matching the filters, ordered by id.
func (r *TaskRepository) List(ctx context.Context, listID uint, isDone *bool, priority *domain.Priority) ([]domain.Task, error) {
	q := r.db.WithContext(ctx).Where("list_id = ?", listID)
	if isDone != nil {
		q = q.Where("is_done = ?", *isDone)
	}
	if priority != nil {
		q = q.Where("priority = ?", *priority)
	}

	var tasks []domain.Task
	if err := q.Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Counts returns the total and completed number of tasks in a list,
// ignoring any filter.
func (r *TaskRepository) Counts(ctx context.Context, listID uint) (total, done int64, err error) {
	if err = r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("list_id = ?", listID).
		Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	if total == 0 {
		return 0, 0, nil
	}
	if err = r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("list_id = ? AND is_done = ?", listID, true).
		Count(&done).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return total, done, nil
}

func translateIntegrity(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", domain.ErrIntegrity, err)
	}
	return err
}
