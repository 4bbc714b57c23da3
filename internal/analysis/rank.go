package analysis

import (
	"sort"

	"github.com/BradenHooton/honeypot/internal/models"
)

// UnknownIP is the bucket for records without a client address
const UnknownIP = "Unknown"

// Count is one ranked value and how often it occurred
type Count struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// counter tallies values while remembering first-seen order
type counter struct {
	order []string
	seen  map[string]int
}

func newCounter() *counter {
	return &counter{seen: make(map[string]int)}
}

func (c *counter) add(value string) {
	if _, ok := c.seen[value]; !ok {
		c.order = append(c.order, value)
	}
	c.seen[value]++
}

func (c *counter) len() int {
	return len(c.order)
}

// top returns the n most frequent values. Equal counts keep first-seen order.
// n <= 0 returns every value.
func (c *counter) top(n int) []Count {
	ranked := make([]Count, 0, len(c.order))
	for _, value := range c.order {
		ranked = append(ranked, Count{Value: value, Count: c.seen[value]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// field reads a display value, tolerating nil records
func field(record *models.LoginAttempt, name string) (string, bool) {
	if record == nil {
		return "", false
	}
	return record.Field(name)
}

func fieldOr(record *models.LoginAttempt, name, fallback string) string {
	if value, ok := field(record, name); ok {
		return value
	}
	return fallback
}

func clientIP(record *models.LoginAttempt) string {
	if ip, ok := field(record, models.FieldClientIP); ok && ip != "" {
		return ip
	}
	return UnknownIP
}
