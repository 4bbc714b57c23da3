package analysis

import (
	"github.com/BradenHooton/honeypot/internal/models"
	pkglogger "github.com/BradenHooton/honeypot/pkg/logger"
)

// DetailedUserAgentLength bounds the user agent shown per entry
const DetailedUserAgentLength = 60

// DetailedEntry is one record prepared for display
type DetailedEntry struct {
	Number    int    `json:"number" yaml:"number"`
	Time      string `json:"time" yaml:"time"`
	IP        string `json:"ip" yaml:"ip"`
	Username  string `json:"username" yaml:"username"`
	Password  string `json:"password" yaml:"password"`
	UserAgent string `json:"user_agent" yaml:"user_agent"`
	Platform  string `json:"platform" yaml:"platform"`
	Language  string `json:"language" yaml:"language"`
}

// Detailed returns the last limit records, most recent first. Each entry is
// numbered by its 1-based position in the full sequence. limit <= 0 shows all.
func Detailed(records []*models.LoginAttempt, limit int) []DetailedEntry {
	start := 0
	if limit > 0 && len(records) > limit {
		start = len(records) - limit
	}

	entries := make([]DetailedEntry, 0, len(records)-start)
	for i := len(records) - 1; i >= start; i-- {
		record := records[i]
		entries = append(entries, DetailedEntry{
			Number:    i + 1,
			Time:      fieldOr(record, models.FieldServerTimestamp, "Unknown"),
			IP:        clientIP(record),
			Username:  fieldOr(record, models.FieldUsername, "N/A"),
			Password:  fieldOr(record, models.FieldPassword, "N/A"),
			UserAgent: pkglogger.Truncate(fieldOr(record, models.FieldUserAgent, "N/A"), DetailedUserAgentLength),
			Platform:  fieldOr(record, models.FieldPlatform, "N/A"),
			Language:  fieldOr(record, models.FieldLanguage, "N/A"),
		})
	}
	return entries
}
