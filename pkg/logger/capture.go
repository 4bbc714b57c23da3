package logger

import (
	"context"
	"log/slog"
)

// UserAgentDisplayLength bounds the user agent shown in the console capture line
const UserAgentDisplayLength = 50

// CaptureEvent describes one captured decoy login for console output
type CaptureEvent struct {
	CaptureID       string
	ServerTimestamp string
	ClientIP        string
	Username        string
	Password        string
	UserAgent       string
}

// CaptureLogger writes one line per capture to the diagnostic log
type CaptureLogger struct {
	logger *slog.Logger
	env    string
}

// NewCaptureLogger creates a new capture logger. Passwords are redacted when env is "production".
func NewCaptureLogger(logger *slog.Logger, env string) *CaptureLogger {
	return &CaptureLogger{
		logger: logger,
		env:    env,
	}
}

// LogCapture logs a captured attempt. The user agent is truncated for display only.
func (cl *CaptureLogger) LogCapture(event CaptureEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "honeypot"),
		slog.String("capture_id", event.CaptureID),
		slog.String("server_timestamp", event.ServerTimestamp),
		slog.String("ip", orDefault(event.ClientIP, "Unknown")),
		slog.String("username", orDefault(event.Username, "N/A")),
		RedactedAttr("password", orDefault(event.Password, "N/A"), cl.env),
		slog.String("user_agent", Truncate(orDefault(event.UserAgent, "N/A"), UserAgentDisplayLength)),
	}

	cl.logger.LogAttrs(context.Background(), slog.LevelInfo, "honeypot_capture", attrs...)
}

// LogCaptureFailure logs a submission that could not be captured
func (cl *CaptureLogger) LogCaptureFailure(clientIP string, err error) {
	cl.logger.LogAttrs(context.Background(), slog.LevelError, "honeypot_capture_failed",
		slog.String("audit_type", "honeypot"),
		slog.String("ip", orDefault(clientIP, "Unknown")),
		slog.Any("error", err),
	)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
