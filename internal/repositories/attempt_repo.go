package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/honeypot/internal/models"
)

const (
	textDelimiterWidth = 60
	notAvailable       = "N/A"
)

// textLogFields is the fixed field order of a text log entry
var textLogFields = []struct {
	label string
	key   string
}{
	{"Username", models.FieldUsername},
	{"Password", models.FieldPassword},
	{"Client IP", models.FieldClientIP},
	{"User Agent", models.FieldUserAgent},
	{"Platform", models.FieldPlatform},
	{"Language", models.FieldLanguage},
	{"Referrer", models.FieldReferrer},
	{"URL", models.FieldURL},
	{"Timestamp", models.FieldTimestamp},
	{"Capture ID", models.FieldCaptureID},
}

// AttemptRepository owns the two capture logs: an append-only text log for
// people and a JSON array log for tooling. Both live in one directory that is
// created lazily on first write.
type AttemptRepository struct {
	dir      string
	textFile string
	jsonFile string
	logger   *slog.Logger
	now      func() time.Time

	// jsonMu serializes the read-modify-write cycle of the JSON log
	jsonMu sync.Mutex
}

// NewAttemptRepository creates a new AttemptRepository
func NewAttemptRepository(dir, textFile, jsonFile string, logger *slog.Logger) *AttemptRepository {
	return &AttemptRepository{
		dir:      dir,
		textFile: textFile,
		jsonFile: jsonFile,
		logger:   logger,
		now:      time.Now,
	}
}

// TextPath returns the path of the human-readable log
func (r *AttemptRepository) TextPath() string {
	return filepath.Join(r.dir, r.textFile)
}

// JSONPath returns the path of the JSON array log
func (r *AttemptRepository) JSONPath() string {
	return filepath.Join(r.dir, r.jsonFile)
}

// Append writes the attempt to both logs. The context is checked once, before
// either write; after that both writes are always attempted and if either
// fails the joined error wraps models.ErrPersistence.
func (r *AttemptRepository) Append(ctx context.Context, attempt *models.LoginAttempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	textErr := r.AppendText(ctx, attempt)
	jsonErr := r.AppendJSON(ctx, attempt)

	if err := errors.Join(textErr, jsonErr); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	return nil
}

// AppendText appends one delimited block to the text log
func (r *AttemptRepository) AppendText(ctx context.Context, attempt *models.LoginAttempt) error {
	if err := r.ensureDir(); err != nil {
		return err
	}

	f, err := os.OpenFile(r.TextPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open text log: %w", err)
	}

	if _, err := f.Write(FormatTextEntry(attempt)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write text log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close text log: %w", err)
	}
	return nil
}

// FormatTextEntry renders the text log block for an attempt
func FormatTextEntry(attempt *models.LoginAttempt) []byte {
	delimiter := strings.Repeat("=", textDelimiterWidth)

	var b bytes.Buffer
	fmt.Fprintf(&b, "\n%s\n", delimiter)
	fmt.Fprintf(&b, "[CAPTURE] HONEYPOT CAPTURE - %s\n", attempt.FieldOr(models.FieldServerTimestamp, notAvailable))
	fmt.Fprintf(&b, "%s\n", delimiter)

	for _, field := range textLogFields {
		fmt.Fprintf(&b, "%s: %s\n", field.label, oneLine(attempt.FieldOr(field.key, notAvailable)))
	}
	for _, key := range attempt.ExtraKeys() {
		fmt.Fprintf(&b, "%s: %s\n", oneLine(key), oneLine(attempt.FieldOr(key, notAvailable)))
	}
	return b.Bytes()
}

// oneLine keeps attacker-supplied newlines from forging extra log lines
func oneLine(value string) string {
	return strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(value)
}

// AppendJSON loads the JSON array log, appends the attempt and rewrites the
// whole file. Existing elements are carried over verbatim. A missing log
// starts a new array. A log that is not a JSON array is moved aside to
// <name>.corrupt-<unix nanos> and a new array is started.
func (r *AttemptRepository) AppendJSON(ctx context.Context, attempt *models.LoginAttempt) error {
	r.jsonMu.Lock()
	defer r.jsonMu.Unlock()

	if err := r.ensureDir(); err != nil {
		return err
	}

	elements, err := r.readElements()
	switch {
	case err == nil:
	case errors.Is(err, models.ErrLogNotFound):
		elements = nil
	case errors.Is(err, models.ErrCorruptLog):
		r.preserveCorrupt(err)
		elements = nil
	default:
		return err
	}

	encoded, err := attempt.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode attempt: %w", err)
	}
	elements = append(elements, encoded)

	data, err := encodeElements(elements)
	if err != nil {
		return fmt.Errorf("failed to encode JSON log: %w", err)
	}
	return r.replaceJSON(data)
}

// LoadAll reads every attempt from the JSON log in arrival order without
// modifying it. Elements that are not objects are skipped. A missing file
// returns models.ErrLogNotFound and one that is not a JSON array returns an
// error wrapping models.ErrCorruptLog.
func (r *AttemptRepository) LoadAll(ctx context.Context) ([]*models.LoginAttempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	elements, err := r.readElements()
	if err != nil {
		return nil, err
	}

	attempts := make([]*models.LoginAttempt, 0, len(elements))
	skipped := 0
	for _, element := range elements {
		var attempt models.LoginAttempt
		if err := json.Unmarshal(element, &attempt); err != nil {
			skipped++
			continue
		}
		attempts = append(attempts, &attempt)
	}
	if skipped > 0 {
		r.logger.Warn("skipped JSON log elements that are not records",
			slog.String("path", r.JSONPath()),
			slog.Int("skipped", skipped),
		)
	}
	return attempts, nil
}

// readElements returns the raw elements of the JSON array log
func (r *AttemptRepository) readElements() ([]json.RawMessage, error) {
	data, err := os.ReadFile(r.JSONPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, models.ErrLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON log: %w", err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCorruptLog, err)
	}
	if elements == nil {
		// "null" is valid JSON but not an array
		return nil, fmt.Errorf("%w: top-level value is not an array", models.ErrCorruptLog)
	}
	return elements, nil
}

func (r *AttemptRepository) preserveCorrupt(cause error) {
	backup := fmt.Sprintf("%s.corrupt-%d", r.JSONPath(), r.now().UnixNano())
	if err := os.Rename(r.JSONPath(), backup); err != nil {
		r.logger.Warn("corrupt JSON log could not be preserved, starting a new one",
			slog.String("path", r.JSONPath()),
			slog.Any("cause", cause),
			slog.Any("error", err),
		)
		return
	}
	r.logger.Warn("corrupt JSON log preserved, starting a new one",
		slog.String("path", r.JSONPath()),
		slog.String("backup", backup),
		slog.Any("cause", cause),
	)
}

// replaceJSON writes data to a temp file in the log directory and renames it
// over the log so readers never observe a half-written array
func (r *AttemptRepository) replaceJSON(data []byte) error {
	tmp, err := os.CreateTemp(r.dir, "."+r.jsonFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp JSON log: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp JSON log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp JSON log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp JSON log: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set JSON log permissions: %w", err)
	}
	if err := os.Rename(tmpName, r.JSONPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace JSON log: %w", err)
	}
	return nil
}

func (r *AttemptRepository) ensureDir() error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

// encodeElements pretty-prints the array with two-space indentation and no HTML escaping
func encodeElements(elements []json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(elements); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
