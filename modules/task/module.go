package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/task-api/config"
	"github.com/example/task-api/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// TaskModule provides task management services backed by GORM.
type TaskModule struct {
	cfg      config.DatabaseConfig
	db       *gorm.DB
	repo     *Repository
	service  *Service
	cache    TaskCache
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventBusAwareModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule. The database is opened on Start.
func NewModule(cfg config.DatabaseConfig, logger types.Logger) *TaskModule {
	return &TaskModule{
		cfg:    cfg,
		logger: logger,
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// SetCache enables cache-aside lookups. Must be called before Start.
func (m *TaskModule) SetCache(cache TaskCache) {
	m.cache = cache
}

// SetEventBus is called by the framework to inject the event bus.
func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeactivatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "deactivate-task", json.Unmarshal, json.Marshal, m.deactivateTask,
	); err != nil {
		return fmt.Errorf("failed to register deactivate-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	m.logger.Info("Registered services",
		"services", "create-task, list-tasks, get-task, update-task, deactivate-task, delete-task")
	return nil
}

// Start opens the database, runs migrations and builds the service.
func (m *TaskModule) Start(ctx context.Context) error {
	db, err := OpenDatabase(m.cfg)
	if err != nil {
		return err
	}
	m.db = db

	m.repo = NewRepository(db)
	if err := m.repo.Migrate(ctx); err != nil {
		return err
	}

	opts := []ServiceOption{}
	if m.cache != nil {
		opts = append(opts, WithCache(m.cache))
	}
	if m.eventBus != nil {
		opts = append(opts, WithEventBus(m.eventBus))
	} else {
		m.logger.Warn("Event bus not set, task events will not be published")
	}
	m.service = NewService(m.repo, m.logger, opts...)

	m.logger.Info("Task module started", "driver", m.cfg.Driver, "cache", m.cache != nil)
	return nil
}

// Stop closes the database connection.
func (m *TaskModule) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	m.logger.Info("Task module stopped")
	return nil
}

// Health pings the database.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	stats := sqlDB.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":           m.cfg.Driver,
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"cache_enabled":    m.cache != nil,
		},
	}
}
