package analysis

import (
	"github.com/BradenHooton/honeypot/internal/models"
)

// Summary is the headline view of a record set
type Summary struct {
	Total        int     `json:"total" yaml:"total"`
	UniqueIPs    int     `json:"unique_ips" yaml:"unique_ips"`
	TopUsernames []Count `json:"top_usernames" yaml:"top_usernames"`
	TopPasswords []Count `json:"top_passwords" yaml:"top_passwords"`
	FirstAttempt string  `json:"first_attempt,omitempty" yaml:"first_attempt,omitempty"`
	LastAttempt  string  `json:"last_attempt,omitempty" yaml:"last_attempt,omitempty"`
}

// Summarize counts attempts and distinct addresses, ranks the topN usernames
// and passwords, and finds the earliest and latest server_timestamp.
// Timestamps are compared as strings since the stored format is fixed width UTC.
func Summarize(records []*models.LoginAttempt, topN int) Summary {
	summary := Summary{
		Total:        len(records),
		TopUsernames: []Count{},
		TopPasswords: []Count{},
	}

	ips := newCounter()
	usernames := newCounter()
	passwords := newCounter()

	for _, record := range records {
		ips.add(clientIP(record))

		if username, ok := field(record, models.FieldUsername); ok && username != "" {
			usernames.add(username)
		}
		if password, ok := field(record, models.FieldPassword); ok && password != "" {
			passwords.add(password)
		}

		stamp, ok := field(record, models.FieldServerTimestamp)
		if !ok || stamp == "" {
			continue
		}
		if summary.FirstAttempt == "" || stamp < summary.FirstAttempt {
			summary.FirstAttempt = stamp
		}
		if stamp > summary.LastAttempt {
			summary.LastAttempt = stamp
		}
	}

	summary.UniqueIPs = ips.len()
	summary.TopUsernames = usernames.top(topN)
	summary.TopPasswords = passwords.top(topN)
	return summary
}
