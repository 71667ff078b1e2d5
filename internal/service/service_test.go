package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursebook/internal/codec"
	"coursebook/internal/nodes"
	"coursebook/internal/service"
	"coursebook/internal/storage"
)

type fixture struct {
	docs    *service.DocumentService
	maps    *service.MindMapService
	items   *service.CollectionService
	emitter *service.MockEmitter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := nodes.Builtin(nil)
	c := codec.New(reg)
	emitter := &service.MockEmitter{}
	docs := service.NewDocumentService(storage.NewDocumentStore(db, c), reg, c, emitter)
	return fixture{
		docs:    docs,
		maps:    service.NewMindMapService(docs),
		items:   service.NewCollectionService(docs),
		emitter: emitter,
	}
}

// ─────────────────────────────────────────────────────────────
// jobGuard
// ─────────────────────────────────────────────────────────────

func TestJobGuard_Begin(t *testing.T) {
	var g service.ExportedJobGuard

	release, err := g.Begin("export-all")
	require.NoError(t, err)
	assert.True(t, g.Running("export-all"))

	_, err = g.Begin("export-all")
	require.ErrorIs(t, err, service.ErrJobRunning)

	other, err := g.Begin("other")
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, g.Running("export-all"))

	again, err := g.Begin("export-all")
	require.NoError(t, err, "guard is free again after release")
	again()
}

func TestJobGuard_Wait(t *testing.T) {
	var g service.ExportedJobGuard
	release, err := g.Begin("job-a")
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Wait(ctx))
}

func TestJobGuard_WaitHonoursContext(t *testing.T) {
	var g service.ExportedJobGuard
	release, err := g.Begin("stuck")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)
}

// ─────────────────────────────────────────────────────────────
// docLocks
// ─────────────────────────────────────────────────────────────

func TestDocLocks_SerializesSameDocument(t *testing.T) {
	var l service.ExportedDocLocks
	var mu sync.Mutex
	inside := 0
	maxInside := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("doc")
			defer unlock()
			mu.Lock()
			inside++
			maxInside = max(maxInside, inside)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
	assert.Equal(t, 0, l.Len(), "idle locks are released")
}

func TestDocLocks_IndependentDocuments(t *testing.T) {
	var l service.ExportedDocLocks
	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}

// ─────────────────────────────────────────────────────────────
// Emitters
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, service.EventDocumentChanged, service.ChangeEvent{DocumentID: "d"})
	m.Emit(ctx, service.EventDocumentDeleted, nil)

	require.Len(t, m.Events, 2)
	assert.Equal(t, []string{service.EventDocumentChanged, service.EventDocumentDeleted}, m.Names())
	assert.Equal(t, service.ChangeEvent{DocumentID: "d"}, m.Events[0].Data)
}

func TestLogEmitter_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		service.LogEmitter{}.Emit(context.Background(), "x", 1)
	})
}
