// Package audit keeps a bounded in-memory log of task lifecycle events.
package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/task-api/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Entry is one recorded task event.
type Entry struct {
	TaskID     string    `json:"task_id"`
	Action     string    `json:"action"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AuditModule subscribes to task events and keeps the most recent entries.
type AuditModule struct {
	capacity int
	entries  []Entry // newest first
	mu       sync.RWMutex
	logger   types.Logger
}

var _ mono.Module = (*AuditModule)(nil)
var _ mono.EventConsumerModule = (*AuditModule)(nil)
var _ mono.HealthCheckableModule = (*AuditModule)(nil)

// NewModule creates an audit module retaining at most capacity entries.
func NewModule(capacity int, logger types.Logger) *AuditModule {
	if capacity < 1 {
		capacity = 1
	}
	return &AuditModule{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
		logger:   logger,
	}
}

func (m *AuditModule) Name() string {
	return "audit"
}

func (m *AuditModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeactivatedV1, m.handleTaskDeactivated, m); err != nil {
		return fmt.Errorf("failed to register TaskDeactivated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", "TaskCreated, TaskUpdated, TaskDeactivated, TaskDeleted")
	return nil
}

func (m *AuditModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, "created", event.CreatedAt,
		fmt.Sprintf("Task '%s' created (status %s, priority %s)", event.Name, event.Status, event.Priority))
	return nil
}

func (m *AuditModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	changed := "no fields"
	if len(event.ChangedFields) > 0 {
		changed = strings.Join(event.ChangedFields, ", ")
	}
	m.record(event.TaskID, "updated", event.UpdatedAt, fmt.Sprintf("Task updated: %s", changed))
	return nil
}

func (m *AuditModule) handleTaskDeactivated(_ context.Context, event events.TaskDeactivatedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, "deactivated", event.DeactivatedAt, "Task deactivated")
	return nil
}

func (m *AuditModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, "deleted", event.DeletedAt, "Task permanently deleted")
	return nil
}

func (m *AuditModule) record(taskID, action string, occurredAt time.Time, message string) {
	m.logger.Info("Task event", "task_id", taskID, "action", action, "message", message)

	entry := Entry{
		TaskID:     taskID,
		Action:     action,
		Message:    message,
		OccurredAt: occurredAt,
		RecordedAt: time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) < m.capacity {
		m.entries = append(m.entries, Entry{})
	}
	copy(m.entries[1:], m.entries[:len(m.entries)-1])
	m.entries[0] = entry
}

// snapshot returns a copy of the retained entries, newest first.
func (m *AuditModule) snapshot() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Entry, len(m.entries))
	copy(result, m.entries)
	return result
}

func (m *AuditModule) Start(_ context.Context) error {
	m.logger.Info("Audit module started", "capacity", m.capacity)
	return nil
}

func (m *AuditModule) Stop(_ context.Context) error {
	m.logger.Info("Audit module stopped", "entries", len(m.snapshot()))
	return nil
}

func (m *AuditModule) Health(_ context.Context) mono.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	details := map[string]any{
		"entries":  len(m.entries),
		"capacity": m.capacity,
	}
	if len(m.entries) > 0 {
		details["last_event_at"] = m.entries[0].RecordedAt
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}
