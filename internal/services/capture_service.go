package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/honeypot/internal/models"
	pkglogger "github.com/BradenHooton/honeypot/pkg/logger"
	"github.com/google/uuid"
)

// AttemptStore persists captured attempts
type AttemptStore interface {
	Append(ctx context.Context, attempt *models.LoginAttempt) error
}

// CaptureMetadata is what the server observed about a submission
type CaptureMetadata struct {
	ClientIP string
	Headers  map[string]string
}

// CaptureService stamps decoded submissions with server-owned fields and
// persists them. Captures are serialized so arrival order, server_timestamp
// order and JSON log order agree.
type CaptureService struct {
	store         AttemptStore
	captureLogger *pkglogger.CaptureLogger
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string

	mu        sync.Mutex
	lastStamp time.Time
}

// NewCaptureService creates a new CaptureService
func NewCaptureService(store AttemptStore, captureLogger *pkglogger.CaptureLogger, logger *slog.Logger) *CaptureService {
	return &CaptureService{
		store:         store,
		captureLogger: captureLogger,
		logger:        logger,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// Record overwrites the attempt's server fields, persists it to both logs and
// emits the console capture line. It returns the capture id on success.
func (s *CaptureService) Record(ctx context.Context, attempt *models.LoginAttempt, meta CaptureMetadata) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	captureID := s.newID()
	attempt.ApplyServerFields(meta.ClientIP, models.FormatServerTimestamp(s.stamp()), captureID, meta.Headers)

	if err := s.store.Append(ctx, attempt); err != nil {
		return "", err
	}

	s.captureLogger.LogCapture(pkglogger.CaptureEvent{
		CaptureID:       captureID,
		ServerTimestamp: attempt.ServerTimestamp,
		ClientIP:        attempt.ClientIP,
		Username:        attempt.FieldOr(models.FieldUsername, ""),
		Password:        attempt.FieldOr(models.FieldPassword, ""),
		UserAgent:       attempt.FieldOr(models.FieldUserAgent, ""),
	})

	return captureID, nil
}

// stamp returns the current wall time, never earlier than the previous stamp.
// The monotonic reading is stripped so a wall clock step back is seen.
// Caller must hold s.mu.
func (s *CaptureService) stamp() time.Time {
	now := s.now().Round(0)
	if now.Before(s.lastStamp) {
		s.logger.Warn("wall clock moved backwards, reusing last capture time",
			slog.Time("now", now),
			slog.Time("last", s.lastStamp),
		)
		now = s.lastStamp
	}
	s.lastStamp = now
	return now
}
