package audittrail

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/memory"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func newRecorder(t *testing.T) (*Recorder, audit.Repository) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore(clock)
	return NewRecorder(store.Audits(), clock, logger.Default()), store.Audits()
}

func TestRecorder_WritesAfterStop(t *testing.T) {
	rec, repo := newRecorder(t)
	rec.Start()
	rec.Stop()

	rec.Record(Entry{UserID: "1001", Action: audit.ActionRegister, Origin: "telegram"})

	records, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, audit.ActionRegister, records[0].Action)
}

func TestRecorder_StopIsIdempotent(t *testing.T) {
	rec, _ := newRecorder(t)
	rec.Start()
	rec.Stop()
	rec.Stop()
}

func TestRecorder_RecordDuringStopNeverPanics(t *testing.T) {
	// Detached webhook goroutines can still append while the process is
	// shutting down, so Record must stay safe while Stop closes the queue.
	// producers*perProducer stays under the queue capacity so no entry
	// can be dropped as full while the race with Stop plays out.
	const producers = 4
	const perProducer = 50

	rec, repo := newRecorder(t)
	rec.Start()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < perProducer; i++ {
				rec.Record(Entry{UserID: "1001", Action: audit.ActionPointsAdjust, Origin: "rest"})
			}
		}()
	}

	close(start)
	rec.Stop()
	wg.Wait()

	// Every entry landed: queued ones were drained by Stop, entries after
	// the stop flag were written synchronously.
	records, err := repo.ListRecent(context.Background(), producers*perProducer+1)
	require.NoError(t, err)
	assert.Len(t, records, producers*perProducer)
}
