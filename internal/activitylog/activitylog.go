package activitylog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"poster-shop/internal/models"
	"poster-shop/internal/util"

	"go.uber.org/zap"
)

// FileName is the activity log file inside the data directory
const FileName = "activity.log"

// dateLayout renders dates the way the log has always carried them,
// e.g. "June 1, 2024"
const dateLayout = "January 2, 2006"

// Publisher mirrors activity entries to an external sink. Publishing is
// best-effort; a nil Publisher disables mirroring.
type Publisher interface {
	PublishActivity(ctx context.Context, entry models.ActivityEntry) error
}

// Logger appends user activity to an append-only, line-oriented log:
// one line per event, `<date>,<username>,<activity>`. Lines are only ever
// appended, never rewritten, so append order is chronological order.
type Logger struct {
	file      *os.File
	path      string
	publisher Publisher
	logger    *zap.Logger

	// mu serializes appends so concurrent callers never interleave
	// partial lines
	mu sync.Mutex
}

// New opens (or creates) the activity log in dir. publisher may be nil.
func New(dir string, publisher Publisher) (*Logger, error) {
	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity log: %w", err)
	}

	return &Logger{
		file:      file,
		path:      path,
		publisher: publisher,
		logger:    util.GetLogger(),
	}, nil
}

// Close closes the underlying log file
func (l *Logger) Close() error {
	return l.file.Close()
}

// Append writes one activity line and returns any write error. Most callers
// want Log instead; Append exists for the ingestion endpoint, which reports
// failures to its client.
func (l *Logger) Append(ctx context.Context, username, activity string) error {
	if username == "" || activity == "" {
		return fmt.Errorf("%w: username and activity are required", models.ErrValidation)
	}
	// The format has no escaping, so comma-bearing fields would corrupt
	// every later parse of the file.
	if strings.ContainsAny(username, ",\n\r") || strings.ContainsAny(activity, ",\n\r") {
		return fmt.Errorf("%w: fields must not contain commas or line breaks", models.ErrValidation)
	}

	entry := models.ActivityEntry{
		Date:     time.Now().Format(dateLayout),
		Username: username,
		Activity: activity,
	}
	line := entry.Date + "," + entry.Username + "," + entry.Activity + "\n"

	l.mu.Lock()
	_, err := l.file.WriteString(line)
	l.mu.Unlock()

	if err != nil {
		util.ActivityAppendsFailed.Inc()
		return fmt.Errorf("failed to append activity: %w", err)
	}
	util.ActivityLinesTotal.Inc()

	if l.publisher != nil {
		if err := l.publisher.PublishActivity(ctx, entry); err != nil {
			l.logger.Warn("Failed to publish activity event",
				zap.String("username", username),
				zap.String("activity", activity),
				zap.Error(err))
		}
	}
	return nil
}

// Log records an activity without reporting failure to the caller: the log
// is an audit trail, and a failed write must never block or reverse the
// operation being audited. Failures are logged and counted.
func (l *Logger) Log(ctx context.Context, username, activity string) {
	if err := l.Append(ctx, username, activity); err != nil {
		l.logger.Error("Failed to record activity",
			zap.String("username", username),
			zap.String("activity", activity),
			zap.Error(err))
	}
}

// Entries parses the whole log back into structured entries, oldest first
func (l *Logger) Entries(ctx context.Context) ([]models.ActivityEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return []models.ActivityEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read activity log: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	entries := make([]models.ActivityEntry, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		entries = append(entries, parseLine(line))
	}
	return entries, nil
}

// parseLine splits a log line from the right: the date itself contains a
// comma ("June 1, 2024"), but usernames and activity tags are validated at
// the edges to never contain one.
func parseLine(line string) models.ActivityEntry {
	last := strings.LastIndex(line, ",")
	if last < 0 {
		return models.ActivityEntry{Date: line}
	}
	activity := line[last+1:]

	rest := line[:last]
	second := strings.LastIndex(rest, ",")
	if second < 0 {
		return models.ActivityEntry{Date: rest, Activity: activity}
	}

	return models.ActivityEntry{
		Date:     rest[:second],
		Username: rest[second+1:],
		Activity: activity,
	}
}
