package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/BradenHooton/honeypot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *AttemptRepository {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "logs")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAttemptRepository(dir, "honeypot_attempts.log", "honeypot_attempts.json", logger)
}

func newAttempt(username, password, ip, ts string) *models.LoginAttempt {
	attempt := &models.LoginAttempt{
		ClientIP:        ip,
		ServerTimestamp: ts,
	}
	if username != "" {
		attempt.Username = models.StringPtr(username)
	}
	if password != "" {
		attempt.Password = models.StringPtr(password)
	}
	return attempt
}

func TestAppend_CreatesDirectoryAndBothLogs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, newAttempt("admin", "admin", "1.2.3.4", "2026-01-01T00:00:00.000000Z")))

	assert.FileExists(t, repo.TextPath())
	assert.FileExists(t, repo.JSONPath())
}

func TestAppendJSON_RoundTripPreservesOrderAndFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		attempt := newAttempt(fmt.Sprintf("user%d", i), "pw", "1.2.3.4", fmt.Sprintf("2026-01-01T00:00:0%d.000000Z", i))
		attempt.UserAgent = models.StringPtr("Mozilla/5.0")
		attempt.Headers = map[string]string{"Content-Type": "application/json"}
		attempt.Extra = map[string]json.RawMessage{"screen": json.RawMessage(`{"w":1920}`)}
		require.NoError(t, repo.AppendJSON(ctx, attempt))
	}

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, n)

	for i, attempt := range loaded {
		assert.Equal(t, fmt.Sprintf("user%d", i), *attempt.Username)
		assert.Equal(t, "Mozilla/5.0", *attempt.UserAgent)
		assert.Equal(t, "1.2.3.4", attempt.ClientIP)
		assert.Equal(t, "application/json", attempt.Headers["Content-Type"])
		assert.JSONEq(t, `{"w":1920}`, string(attempt.Extra["screen"]))
	}
}

func TestAppendJSON_PrettyPrintedUnescaped(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.AppendJSON(context.Background(), newAttempt("józef<>", "пароль", "1.2.3.4", "t")))

	data, err := os.ReadFile(repo.JSONPath())
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "[\n  {\n"), "array should be indented: %q", text)
	assert.Contains(t, text, `"username": "józef<>"`)
	assert.Contains(t, text, `"password": "пароль"`)
}

func TestAppendJSON_CorruptLogIsPreservedAndReplaced(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(repo.JSONPath()), 0o755))
	require.NoError(t, os.WriteFile(repo.JSONPath(), []byte("{not json"), 0o644))

	require.NoError(t, repo.AppendJSON(context.Background(), newAttempt("root", "toor", "5.6.7.8", "t")))

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "root", *loaded[0].Username)

	backups, err := filepath.Glob(repo.JSONPath() + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	preserved, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(preserved))
}

func TestAppendJSON_NonArrayLogTreatedAsCorrupt(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(repo.JSONPath()), 0o755))
	require.NoError(t, os.WriteFile(repo.JSONPath(), []byte("null"), 0o644))

	_, err := repo.LoadAll(context.Background())
	assert.ErrorIs(t, err, models.ErrCorruptLog)

	require.NoError(t, repo.AppendJSON(context.Background(), newAttempt("a", "b", "1.1.1.1", "t")))
	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestAppendJSON_ConcurrentAppendsAreNotLost(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.AppendJSON(ctx, newAttempt(fmt.Sprintf("u%d", i), "p", "1.1.1.1", "t")))
		}(i)
	}
	wg.Wait()

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, writers)
}

func TestLoadAll_MissingLog(t *testing.T) {
	repo := newTestRepo(t)

	loaded, err := repo.LoadAll(context.Background())
	assert.ErrorIs(t, err, models.ErrLogNotFound)
	assert.Empty(t, loaded)
}

func TestLoadAll_IsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.AppendJSON(ctx, newAttempt("a", "b", "1.1.1.1", "t1")))
	require.NoError(t, repo.AppendJSON(ctx, newAttempt("c", "d", "2.2.2.2", "t2")))

	first, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	second, err := repo.LoadAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadAll_SkipsNullElements(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(repo.JSONPath()), 0o755))
	require.NoError(t, os.WriteFile(repo.JSONPath(), []byte(`[{"username":"a"}, null]`), 0o644))

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "a", *loaded[0].Username)
}

func TestAppendText_MissingFieldsRenderNA(t *testing.T) {
	repo := newTestRepo(t)
	attempt := newAttempt("", "", "9.9.9.9", "2026-01-01T00:00:00.000000Z")

	require.NoError(t, repo.AppendText(context.Background(), attempt))
	require.NoError(t, repo.AppendText(context.Background(), attempt))

	data, err := os.ReadFile(repo.TextPath())
	require.NoError(t, err)
	text := string(data)

	assert.Equal(t, 2, strings.Count(text, "[CAPTURE] HONEYPOT CAPTURE - 2026-01-01T00:00:00.000000Z"))
	assert.Contains(t, text, "Username: N/A\n")
	assert.Contains(t, text, "Password: N/A\n")
	assert.Contains(t, text, "Client IP: 9.9.9.9\n")
	assert.Contains(t, text, strings.Repeat("=", 60)+"\n")
}

func TestFormatTextEntry_ExtraKeysAndNewlines(t *testing.T) {
	attempt := newAttempt("evil\nUsername: admin", "p", "1.1.1.1", "t")
	attempt.Extra = map[string]json.RawMessage{"remember": json.RawMessage(`true`)}

	text := string(FormatTextEntry(attempt))

	assert.Contains(t, text, `Username: evil\nUsername: admin`+"\n")
	assert.Contains(t, text, "remember: true\n")
	assert.Equal(t, 1, strings.Count(text, "\nUsername: "))
}

func TestAppend_TextFailureStillWritesJSON(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.MkdirAll(repo.TextPath(), 0o755)) // a directory cannot be opened for append

	err := repo.Append(context.Background(), newAttempt("a", "b", "1.1.1.1", "t"))
	assert.ErrorIs(t, err, models.ErrPersistence)

	loaded, loadErr := repo.LoadAll(context.Background())
	require.NoError(t, loadErr)
	assert.Len(t, loaded, 1)
}

func TestAppendJSON_KeepsNonObjectElements(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(repo.JSONPath()), 0o755))
	require.NoError(t, os.WriteFile(repo.JSONPath(), []byte(`[1, {"username":"a"}]`), 0o644))

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "a", *loaded[0].Username)

	require.NoError(t, repo.AppendJSON(context.Background(), newAttempt("b", "p", "1.1.1.1", "t")))

	data, err := os.ReadFile(repo.JSONPath())
	require.NoError(t, err)
	var elements []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &elements))
	require.Len(t, elements, 3)
	assert.Equal(t, "1", string(elements[0]))

	backups, err := filepath.Glob(repo.JSONPath() + ".corrupt-*")
	require.NoError(t, err)
	assert.Empty(t, backups)

	loaded, err = repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "b", *loaded[1].Username)
}

// cancelAfterFirstCheck reports cancellation from its second Err call onward
type cancelAfterFirstCheck struct {
	context.Context
	calls int
}

func (c *cancelAfterFirstCheck) Err() error {
	c.calls++
	if c.calls > 1 {
		return context.Canceled
	}
	return nil
}

func TestAppend_CancellationAfterStartStillWritesBothLogs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := &cancelAfterFirstCheck{Context: context.Background()}

	require.NoError(t, repo.Append(ctx, newAttempt("a", "b", "1.1.1.1", "t")))

	assert.FileExists(t, repo.TextPath())
	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestAppend_CanceledBeforeStartWritesNothing(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Append(ctx, newAttempt("a", "b", "1.1.1.1", "t"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, repo.TextPath())
	assert.NoFileExists(t, repo.JSONPath())
}
