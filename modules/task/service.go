package task

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	domain "github.com/example/task-api/domain/task"
	"github.com/example/task-api/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Service implements task business logic on top of the repository.
// The cache and event bus are optional.
type Service struct {
	repo   *Repository
	cache  TaskCache
	bus    mono.EventBus
	logger types.Logger
	group  singleflight.Group
	writes atomic.Uint64 // cache invalidations so far
	now    func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache enables cache-aside reads for single-task lookups.
func WithCache(cache TaskCache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithEventBus publishes lifecycle events on bus.
func WithEventBus(bus mono.EventBus) ServiceOption {
	return func(s *Service) {
		s.bus = bus
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new task service.
func NewService(repo *Repository, logger types.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp returns the current time at the precision every supported database stores.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create persists a new active task with a fresh UUID.
func (s *Service) Create(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	task := domain.New(req.Name)
	task.Description = req.Description
	task.DueDate = req.DueDate
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}

	if err := validateTask(task); err != nil {
		return nil, err
	}

	now := s.timestamp()
	task.ID = uuid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("Task created", "task_id", task.ID, "name", task.Name)

	if s.bus != nil {
		evt := events.TaskCreatedEvent{
			TaskID:    task.ID,
			Name:      task.Name,
			Status:    string(task.Status),
			Priority:  string(task.Priority),
			CreatedAt: task.CreatedAt,
		}
		if err := events.TaskCreatedV1.Publish(s.bus, evt, nil); err != nil {
			s.logger.Warn("Failed to publish TaskCreated event", "task_id", task.ID, "error", err)
		}
	}

	return task, nil
}

// FindAll returns one page of tasks matching filter, newest first.
func (s *Service) FindAll(ctx context.Context, pagination domain.Pagination, filter domain.Filter) (*domain.Page, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, *filter.Status)
	}
	if filter.Priority != nil && !filter.Priority.IsValid() {
		return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalid, *filter.Priority)
	}

	p := pagination.Normalize()
	tasks, total, err := s.repo.List(ctx, filter, p)
	if err != nil {
		return nil, err
	}

	return &domain.Page{
		Data: tasks,
		Meta: domain.NewPageMeta(p, total),
	}, nil
}

// FindOne returns the task with the given ID.
// Concurrent lookups of the same ID share one database read.
func (s *Service) FindOne(ctx context.Context, id string) (*domain.Task, error) {
	if s.cache != nil {
		var cached domain.Task
		found, err := s.cache.Get(ctx, id, &cached)
		if err != nil {
			s.logger.Warn("Cache read failed", "task_id", id, "error", err)
		}
		if found {
			return &cached, nil
		}
	}

	v, err, _ := s.group.Do(id, func() (any, error) {
		seen := s.writes.Load()
		task, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, id, task); err != nil {
				s.logger.Warn("Cache write failed", "task_id", id, "error", err)
			}
			// A write that landed after the read may have been invalidated before our Set.
			if s.writes.Load() != seen {
				s.dropCached(ctx, id)
			}
		}
		return task, nil
	})
	if err != nil {
		return nil, err
	}

	task := *v.(*domain.Task)
	return &task, nil
}

// Update applies patch to an existing task and advances UpdatedAt.
func (s *Service) Update(ctx context.Context, id string, patch TaskPatch) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := patch.apply(task)
	if err := validateTask(task); err != nil {
		return nil, err
	}
	task.UpdatedAt = s.advance(task.UpdatedAt)

	if err := s.repo.Save(ctx, task); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	s.logger.Info("Task updated", "task_id", id, "fields", changed)

	if s.bus != nil {
		evt := events.TaskUpdatedEvent{
			TaskID:        id,
			ChangedFields: changed,
			UpdatedAt:     task.UpdatedAt,
		}
		if err := events.TaskUpdatedV1.Publish(s.bus, evt, nil); err != nil {
			s.logger.Warn("Failed to publish TaskUpdated event", "task_id", id, "error", err)
		}
	}

	return task, nil
}

// SoftDelete marks a task inactive and leaves every other field untouched.
// Deactivating an inactive task is a no-op.
func (s *Service) SoftDelete(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.IsActive {
		return task, nil
	}

	task.IsActive = false

	if err := s.repo.Save(ctx, task); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	s.logger.Info("Task deactivated", "task_id", id)

	if s.bus != nil {
		evt := events.TaskDeactivatedEvent{
			TaskID:        id,
			DeactivatedAt: s.timestamp(),
		}
		if err := events.TaskDeactivatedV1.Publish(s.bus, evt, nil); err != nil {
			s.logger.Warn("Failed to publish TaskDeactivated event", "task_id", id, "error", err)
		}
	}

	return task, nil
}

// Remove permanently deletes a task.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	s.logger.Info("Task deleted", "task_id", id)

	if s.bus != nil {
		evt := events.TaskDeletedEvent{
			TaskID:    id,
			DeletedAt: s.timestamp(),
		}
		if err := events.TaskDeletedV1.Publish(s.bus, evt, nil); err != nil {
			s.logger.Warn("Failed to publish TaskDeleted event", "task_id", id, "error", err)
		}
	}

	return nil
}

// advance returns the current time, or a moment just after prev if the clock has not moved past it.
func (s *Service) advance(prev time.Time) time.Time {
	now := s.timestamp()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

// invalidate removes the cached copy of id after a write.
// Lookups already in flight for id are detached so later readers hit the database.
func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	s.writes.Add(1)
	s.group.Forget(id)
	s.dropCached(ctx, id)
}

func (s *Service) dropCached(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("Cache invalidation failed", "task_id", id, "error", err)
	}
}

// apply copies the set fields of p onto task and returns the names of the fields it touched.
func (p TaskPatch) apply(task *domain.Task) []string {
	changed := make([]string, 0, 5)
	if p.Name != nil {
		task.Name = *p.Name
		changed = append(changed, "name")
	}
	switch {
	case p.ClearDescription:
		task.Description = nil
		changed = append(changed, "description")
	case p.Description != nil:
		desc := *p.Description
		task.Description = &desc
		changed = append(changed, "description")
	}
	switch {
	case p.ClearDueDate:
		task.DueDate = nil
		changed = append(changed, "dueDate")
	case p.DueDate != nil:
		due := *p.DueDate
		task.DueDate = &due
		changed = append(changed, "dueDate")
	}
	if p.Status != nil {
		task.Status = *p.Status
		changed = append(changed, "status")
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
		changed = append(changed, "priority")
	}
	return changed
}

func validateTask(task *domain.Task) error {
	if task.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalid)
	}
	if utf8.RuneCountInString(task.Name) > domain.MaxNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", domain.ErrInvalid, domain.MaxNameLength)
	}
	if !task.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, task.Status)
	}
	if !task.Priority.IsValid() {
		return fmt.Errorf("%w: unknown priority %q", domain.ErrInvalid, task.Priority)
	}
	return nil
}
