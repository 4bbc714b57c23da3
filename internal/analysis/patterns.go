package analysis

import (
	"sort"

	"github.com/BradenHooton/honeypot/internal/models"
)

// IPGroup is the activity seen from one client address.
// DistinctUsernames is only set for groups with more than one attempt.
type IPGroup struct {
	IP                string `json:"ip" yaml:"ip"`
	Attempts          int    `json:"attempts" yaml:"attempts"`
	DistinctUsernames int    `json:"distinct_usernames,omitempty" yaml:"distinct_usernames,omitempty"`
}

// Combo is a username/password pair and how often it was tried
type Combo struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Count    int    `json:"count" yaml:"count"`
}

// Patterns groups attempts by address and ranks credential pairs
type Patterns struct {
	ByIP      []IPGroup `json:"by_ip" yaml:"by_ip"`
	TopCombos []Combo   `json:"top_combos" yaml:"top_combos"`
}

type ipActivity struct {
	attempts  int
	usernames map[string]struct{}
}

type comboKey struct {
	username string
	password string
}

// AnalyzePatterns groups every record by client address, largest group first,
// and ranks the topN exact username/password pairs. Ties keep first-seen order.
// Pairs with an empty side are ignored.
func AnalyzePatterns(records []*models.LoginAttempt, topN int) Patterns {
	var ipOrder []string
	activity := make(map[string]*ipActivity)

	var comboOrder []comboKey
	combos := make(map[comboKey]int)

	for _, record := range records {
		ip := clientIP(record)
		group, ok := activity[ip]
		if !ok {
			group = &ipActivity{usernames: make(map[string]struct{})}
			activity[ip] = group
			ipOrder = append(ipOrder, ip)
		}
		group.attempts++

		// missing and empty usernames count as one distinct value
		username, _ := field(record, models.FieldUsername)
		password, _ := field(record, models.FieldPassword)
		group.usernames[username] = struct{}{}

		if username == "" || password == "" {
			continue
		}
		key := comboKey{username: username, password: password}
		if _, ok := combos[key]; !ok {
			comboOrder = append(comboOrder, key)
		}
		combos[key]++
	}

	patterns := Patterns{
		ByIP:      make([]IPGroup, 0, len(ipOrder)),
		TopCombos: make([]Combo, 0, len(comboOrder)),
	}

	for _, ip := range ipOrder {
		group := activity[ip]
		entry := IPGroup{IP: ip, Attempts: group.attempts}
		if group.attempts > 1 {
			entry.DistinctUsernames = len(group.usernames)
		}
		patterns.ByIP = append(patterns.ByIP, entry)
	}
	sort.SliceStable(patterns.ByIP, func(i, j int) bool {
		return patterns.ByIP[i].Attempts > patterns.ByIP[j].Attempts
	})

	for _, key := range comboOrder {
		patterns.TopCombos = append(patterns.TopCombos, Combo{
			Username: key.username,
			Password: key.password,
			Count:    combos[key],
		})
	}
	sort.SliceStable(patterns.TopCombos, func(i, j int) bool {
		return patterns.TopCombos[i].Count > patterns.TopCombos[j].Count
	})
	if topN > 0 && len(patterns.TopCombos) > topN {
		patterns.TopCombos = patterns.TopCombos[:topN]
	}

	return patterns
}
