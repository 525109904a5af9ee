package activitylog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"poster-shop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, publisher Publisher) (*Logger, string) {
	t.Helper()
	dir := t.TempDir()
	logger, err := New(dir, publisher)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return logger, filepath.Join(dir, FileName)
}

func TestAppendWritesOneLinePerEvent(t *testing.T) {
	logger, path := newTestLogger(t, nil)
	ctx := context.Background()

	require.NoError(t, logger.Append(ctx, "kat", "login"))
	require.NoError(t, logger.Append(ctx, "kat", "checkout"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], ",kat,login"), "line: %s", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",kat,checkout"), "line: %s", lines[1])

	// Date like "June 1, 2024": month name, day, comma, year.
	assert.Regexp(t, `^[A-Z][a-z]+ \d{1,2}, \d{4},kat,login$`, lines[0])
}

func TestAppendValidation(t *testing.T) {
	logger, path := newTestLogger(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, logger.Append(ctx, "", "login"), models.ErrValidation)
	assert.ErrorIs(t, logger.Append(ctx, "kat", ""), models.ErrValidation)
	assert.ErrorIs(t, logger.Append(ctx, "kat,admin", "login"), models.ErrValidation)
	assert.ErrorIs(t, logger.Append(ctx, "kat", "did,things"), models.ErrValidation)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, string(data), "rejected entries must not be written")
}

func TestEntriesRoundTrip(t *testing.T) {
	logger, _ := newTestLogger(t, nil)
	ctx := context.Background()

	require.NoError(t, logger.Append(ctx, "kat", "login"))
	require.NoError(t, logger.Append(ctx, "admin", "checkout"))

	entries, err := logger.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "kat", entries[0].Username)
	assert.Equal(t, "login", entries[0].Activity)
	assert.Contains(t, entries[0].Date, ",", "the display date itself contains a comma")
	assert.Equal(t, "admin", entries[1].Username)
	assert.Equal(t, "checkout", entries[1].Activity)
}

func TestEntriesOnMissingFileIsEmpty(t *testing.T) {
	logger, path := newTestLogger(t, nil)

	require.NoError(t, os.Remove(path))
	entries, err := logger.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendsAreMonotonicAndNeverInterleave(t *testing.T) {
	logger, path := newTestLogger(t, nil)
	ctx := context.Background()

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				assert.NoError(t, logger.Append(ctx, fmt.Sprintf("user%d", w), "ping"))
			}
		}(w)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, workers*perWorker)
	for _, line := range lines {
		assert.Regexp(t, `^[A-Z][a-z]+ \d{1,2}, \d{4},user\d,ping$`, line, "interleaved or partial line")
	}
}

type fakePublisher struct {
	mu      sync.Mutex
	entries []models.ActivityEntry
	fail    bool
}

func (f *fakePublisher) PublishActivity(ctx context.Context, entry models.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("broker down")
	}
	f.entries = append(f.entries, entry)
	return nil
}

func TestAppendMirrorsToPublisher(t *testing.T) {
	publisher := &fakePublisher{}
	logger, _ := newTestLogger(t, publisher)

	require.NoError(t, logger.Append(context.Background(), "kat", "login"))

	require.Len(t, publisher.entries, 1)
	assert.Equal(t, "kat", publisher.entries[0].Username)
	assert.Equal(t, "login", publisher.entries[0].Activity)
}

func TestPublisherFailureDoesNotFailAppend(t *testing.T) {
	publisher := &fakePublisher{fail: true}
	logger, path := newTestLogger(t, publisher)

	require.NoError(t, logger.Append(context.Background(), "kat", "login"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), ",kat,login")
}
