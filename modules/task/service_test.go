package task

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/example/task-api/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

// memoryCache is an in-process TaskCache that stores JSON like the Redis cache does.
type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	gets    int
	deletes int
	fail    bool

	// beforeSet runs once, ahead of the next Set.
	beforeSet func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.fail {
		return false, errors.New("cache unavailable")
	}
	data, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("cache unavailable")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = data
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	if c.fail {
		return errors.New("cache unavailable")
	}
	delete(c.items, key)
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// steppingClock returns a time source that advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		current = current.Add(step)
		return now
	}
}

func setupTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	opts = append([]ServiceOption{WithClock(steppingClock(baseTime, time.Second))}, opts...)
	return NewService(NewRepository(setupTestDB(t)), &mockLogger{}, opts...)
}

func ptr[T any](v T) *T {
	return &v
}

func TestService_Create_Defaults(t *testing.T) {
	svc := setupTestService(t)

	task, err := svc.Create(context.Background(), CreateTaskRequest{Name: "Buy milk"})
	require.NoError(t, err)

	_, err = uuid.Parse(task.ID)
	assert.NoError(t, err, "ID should be a UUID")
	assert.Equal(t, "Buy milk", task.Name)
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, domain.PriorityNormal, task.Priority)
	assert.True(t, task.IsActive)
	assert.Nil(t, task.Description)
	assert.Nil(t, task.DueDate)
	assert.True(t, task.CreatedAt.Equal(task.UpdatedAt), "createdAt and updatedAt should match on create")
}

func TestService_Create_Explicit(t *testing.T) {
	svc := setupTestService(t)
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	task, err := svc.Create(context.Background(), CreateTaskRequest{
		Name:        "Ship release",
		Description: ptr("v2.0"),
		DueDate:     &due,
		Status:      domain.StatusInProgress,
		Priority:    domain.PriorityHigh,
	})
	require.NoError(t, err)

	found, err := svc.FindOne(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, found.Status)
	assert.Equal(t, domain.PriorityHigh, found.Priority)
	require.NotNil(t, found.Description)
	assert.Equal(t, "v2.0", *found.Description)
	require.NotNil(t, found.DueDate)
	assert.True(t, found.DueDate.Equal(due))
}

func TestService_Create_DistinctIDs(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateTaskRequest{Name: "Same"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateTaskRequest{Name: "Same"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestService_Create_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  CreateTaskRequest
	}{
		{"empty name", CreateTaskRequest{}},
		{"name too long", CreateTaskRequest{Name: strings.Repeat("x", domain.MaxNameLength+1)}},
		{"unknown status", CreateTaskRequest{Name: "ok", Status: "Archived"}},
		{"unknown priority", CreateTaskRequest{Name: "ok", Priority: "Green"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := setupTestService(t)
			_, err := svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalid)

			page, err := svc.FindAll(context.Background(), domain.Pagination{}, domain.Filter{})
			require.NoError(t, err)
			assert.Zero(t, page.Meta.TotalItems, "nothing should be persisted")
		})
	}
}

func TestService_Create_MaxLengthName(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.Create(context.Background(), CreateTaskRequest{Name: strings.Repeat("é", domain.MaxNameLength)})
	assert.NoError(t, err)
}

func TestService_FindAll_PageMeta(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := svc.Create(ctx, CreateTaskRequest{Name: "task"})
		require.NoError(t, err)
	}

	page, err := svc.FindAll(ctx, domain.Pagination{Page: 3, Limit: 10}, domain.Filter{})
	require.NoError(t, err)

	assert.Len(t, page.Data, 5)
	assert.Equal(t, domain.PageMeta{
		CurrentPage:     3,
		ItemsPerPage:    10,
		TotalItems:      25,
		TotalPages:      3,
		HasNextPage:     false,
		HasPreviousPage: true,
	}, page.Meta)
}

func TestService_FindAll_NewestFirst(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateTaskRequest{Name: "first"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateTaskRequest{Name: "second"})
	require.NoError(t, err)

	page, err := svc.FindAll(ctx, domain.Pagination{}, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, second.ID, page.Data[0].ID)
	assert.Equal(t, first.ID, page.Data[1].ID)
}

func TestService_FindAll_Empty(t *testing.T) {
	svc := setupTestService(t)

	page, err := svc.FindAll(context.Background(), domain.Pagination{Page: 1, Limit: 10}, domain.Filter{})
	require.NoError(t, err)

	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, 0, page.Meta.TotalPages)
	assert.False(t, page.Meta.HasNextPage)
	assert.False(t, page.Meta.HasPreviousPage)
}

func TestService_FindAll_NormalizesPagination(t *testing.T) {
	svc := setupTestService(t)

	page, err := svc.FindAll(context.Background(), domain.Pagination{Page: 0, Limit: 500}, domain.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Meta.CurrentPage)
	assert.Equal(t, domain.MaxLimit, page.Meta.ItemsPerPage)
}

func TestService_FindAll_InvalidFilter(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.FindAll(context.Background(), domain.Pagination{}, domain.Filter{Status: ptr(domain.Status("Nope"))})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	_, err = svc.FindAll(context.Background(), domain.Pagination{}, domain.Filter{Priority: ptr(domain.Priority("Nope"))})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestService_FindOne_NotFound(t *testing.T) {
	svc := setupTestService(t)
	id := uuid.New().String()

	_, err := svc.FindOne(context.Background(), id)
	require.ErrorIs(t, err, domain.ErrNotFound)

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, id, nf.ID)
}

func TestService_Update(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Name: "Draft", Description: ptr("notes")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, TaskPatch{Status: ptr(domain.StatusDone)})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDone, updated.Status)
	assert.Equal(t, "Draft", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "notes", *updated.Description)
	assert.Equal(t, domain.PriorityNormal, updated.Priority)
	assert.True(t, updated.IsActive)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updatedAt should increase")

	found, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, found.Status)
}

func TestService_Update_UpdatedAtStrictlyIncreases(t *testing.T) {
	frozen := baseTime
	svc := NewService(NewRepository(setupTestDB(t)), &mockLogger{}, WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Name: "Frozen clock"})
	require.NoError(t, err)

	first, err := svc.Update(ctx, created.ID, TaskPatch{Name: ptr("one")})
	require.NoError(t, err)
	second, err := svc.Update(ctx, created.ID, TaskPatch{Name: ptr("two")})
	require.NoError(t, err)

	assert.True(t, first.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestService_Update_ClearFields(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	due := baseTime.Add(48 * time.Hour)

	created, err := svc.Create(ctx, CreateTaskRequest{Name: "With extras", Description: ptr("desc"), DueDate: &due})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, TaskPatch{ClearDescription: true, ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
	assert.Nil(t, updated.DueDate)

	found, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, found.Description)
	assert.Nil(t, found.DueDate)
}

func TestService_Update_Invalid(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Name: "Stable"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, TaskPatch{Status: ptr(domain.Status("Archived"))})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	_, err = svc.Update(ctx, created.ID, TaskPatch{Name: ptr("")})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	found, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stable", found.Name)
	assert.Equal(t, domain.StatusPending, found.Status)
	assert.True(t, found.UpdatedAt.Equal(created.UpdatedAt))
}

func TestService_Update_NotFound(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.Update(context.Background(), uuid.New().String(), TaskPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_SoftDelete(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Name: "Retire me", Priority: domain.PriorityHigh})
	require.NoError(t, err)

	deactivated, err := svc.SoftDelete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
	assert.Equal(t, created.Name, deactivated.Name)
	assert.Equal(t, created.Status, deactivated.Status)
	assert.Equal(t, created.Priority, deactivated.Priority)
	assert.True(t, created.UpdatedAt.Equal(deactivated.UpdatedAt), "only isActive changes")
	assert.True(t, created.CreatedAt.Equal(deactivated.CreatedAt))

	found, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err, "soft-deleted task should remain retrievable")
	assert.False(t, found.IsActive)

	again, err := svc.SoftDelete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, again.IsActive)
	assert.Equal(t, deactivated.Name, again.Name)

	inactive := false
	page, err := svc.FindAll(ctx, domain.Pagination{}, domain.Filter{IsActive: &inactive})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Meta.TotalItems)
}

func TestService_SoftDelete_NotFound(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.SoftDelete(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Remove(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Name: "Delete me"})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, created.ID))

	_, err = svc.FindOne(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Remove(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Cache_ReadThroughAndInvalidate(t *testing.T) {
	cache := newMemoryCache()
	svc := setupTestService(t, WithCache(cache))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Name: "Cached"})
	require.NoError(t, err)
	assert.False(t, cache.has(created.ID), "create should not populate the cache")

	_, err = svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, cache.has(created.ID), "first read should populate the cache")

	_, err = svc.Update(ctx, created.ID, TaskPatch{Name: ptr("Renamed")})
	require.NoError(t, err)
	assert.False(t, cache.has(created.ID), "update should invalidate")

	found, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", found.Name, "read after update must not be stale")

	_, err = svc.SoftDelete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, cache.has(created.ID), "soft delete should invalidate")

	found, err = svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	require.NoError(t, svc.Remove(ctx, created.ID))
	assert.False(t, cache.has(created.ID), "remove should invalidate")

	_, err = svc.FindOne(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Cache_WriteDuringReadIsNotCached(t *testing.T) {
	cache := newMemoryCache()
	svc := setupTestService(t, WithCache(cache))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Name: "Before"})
	require.NoError(t, err)

	// The update lands after the read loaded the row but before it stores the row in the cache.
	cache.mu.Lock()
	cache.beforeSet = func() {
		_, err := svc.Update(ctx, created.ID, TaskPatch{Name: ptr("After")})
		require.NoError(t, err)
	}
	cache.mu.Unlock()

	first, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Before", first.Name, "the read started before the update")
	assert.False(t, cache.has(created.ID), "the pre-update row must not stay cached")

	second, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", second.Name)
	assert.True(t, cache.has(created.ID))
}

func TestService_Cache_ServesHits(t *testing.T) {
	cache := newMemoryCache()
	svc := setupTestService(t, WithCache(cache))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Name: "Hot"})
	require.NoError(t, err)
	_, err = svc.FindOne(ctx, created.ID)
	require.NoError(t, err)

	// Remove the row behind the cache's back; a hit must not touch the database.
	require.NoError(t, svc.repo.Delete(ctx, created.ID))

	found, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, found.CreatedAt.Equal(created.CreatedAt))
}

func TestService_Cache_ErrorsAreIgnored(t *testing.T) {
	cache := newMemoryCache()
	cache.fail = true
	svc := setupTestService(t, WithCache(cache))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Name: "Resilient"})
	require.NoError(t, err)

	found, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Resilient", found.Name)

	_, err = svc.Update(ctx, created.ID, TaskPatch{Priority: ptr(domain.PriorityLow)})
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, created.ID))
}

func TestService_FindOne_Concurrent(t *testing.T) {
	cache := newMemoryCache()
	svc := setupTestService(t, WithCache(cache))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Name: "Popular"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task, err := svc.FindOne(ctx, created.ID)
			if err != nil {
				errs <- err
				return
			}
			if task.ID != created.ID {
				errs <- errors.New("wrong task returned")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.True(t, cache.has(created.ID))
}

func TestTaskPatch_Apply(t *testing.T) {
	desc := "old"
	task := &domain.Task{Name: "n", Description: &desc, Status: domain.StatusPending, Priority: domain.PriorityLow}

	changed := TaskPatch{
		Name:        ptr("new"),
		Description: ptr("fresh"),
		Priority:    ptr(domain.PriorityHigh),
	}.apply(task)

	assert.Equal(t, []string{"name", "description", "priority"}, changed)
	assert.Equal(t, "new", task.Name)
	assert.Equal(t, "fresh", *task.Description)
	assert.Equal(t, "old", desc, "patch must not alias the previous description")
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, domain.PriorityHigh, task.Priority)

	assert.Empty(t, TaskPatch{}.apply(task))
}
