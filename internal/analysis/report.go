package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BradenHooton/honeypot/internal/models"
	"gopkg.in/yaml.v3"
)

// Report defaults
const (
	DefaultLimit     = 10
	DefaultTopN      = 5
	DefaultServerURL = "http://localhost:8080"
)

// Options controls report construction
type Options struct {
	Limit     int
	TopN      int
	ServerURL string // shown in the how-to hints when there is no data
}

// Files locates the raw logs a report was built from
type Files struct {
	JSON string `json:"json" yaml:"json"`
	Text string `json:"text" yaml:"text"`
}

// Report bundles every view of a dataset
type Report struct {
	Notice    string          `json:"notice,omitempty" yaml:"notice,omitempty"`
	Summary   Summary         `json:"summary" yaml:"summary"`
	Recent    []DetailedEntry `json:"recent" yaml:"recent"`
	Patterns  Patterns        `json:"patterns" yaml:"patterns"`
	Files     Files           `json:"files" yaml:"files"`
	ServerURL string          `json:"-" yaml:"-"`
}

// BuildReport runs Summarize, Detailed and AnalyzePatterns over the dataset
func BuildReport(data *Dataset, files Files, opts Options) *Report {
	if opts.ServerURL == "" {
		opts.ServerURL = DefaultServerURL
	}

	var records []*models.LoginAttempt
	report := &Report{Files: files, ServerURL: opts.ServerURL}
	if data != nil {
		records = data.Records
		report.Notice = data.Notice
	}

	report.Summary = Summarize(records, opts.TopN)
	report.Recent = Detailed(records, opts.Limit)
	report.Patterns = AnalyzePatterns(records, opts.TopN)
	return report
}

// Empty reports whether no attempts were loaded
func (r *Report) Empty() bool {
	return r.Summary.Total == 0
}

// WriteJSON renders the report as indented JSON
func WriteJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteYAML renders the report as YAML
func WriteYAML(w io.Writer, report *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

// textWriter keeps the first write error so rendering code stays linear
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) rule(ch string, width int) {
	t.printf("%s\n", strings.Repeat(ch, width))
}

// WriteText renders the console report. With no data it prints the notice,
// a "no attempts" line and how to generate logs, and nothing else.
func WriteText(w io.Writer, report *Report) error {
	tw := &textWriter{w: w}

	tw.printf("Honeypot Log Viewer\n")
	tw.rule("=", 40)

	if report.Empty() {
		writeNoData(tw, report)
		return tw.err
	}

	writeSummary(tw, report.Summary)
	writeDetailed(tw, report.Recent)
	writePatterns(tw, report.Patterns)

	tw.printf("\nRaw log files location:\n")
	tw.printf("  * JSON: %s\n", report.Files.JSON)
	tw.printf("  * Text: %s\n", report.Files.Text)

	tw.printf("\nWhat this teaches you:\n")
	tw.printf("  * How attackers try common username/password combinations\n")
	tw.printf("  * The importance of monitoring login attempts\n")
	tw.printf("  * How honeypots can reveal attack patterns\n")
	tw.printf("  * Real-world cybersecurity monitoring techniques\n")

	return tw.err
}

func writeNoData(tw *textWriter, report *Report) {
	if report.Notice != "" {
		tw.printf("[!] %s\n", report.Notice)
		tw.printf("Run the honeypot server first to generate logs!\n")
	}
	tw.printf("\nNo attempts captured yet.\n")

	tw.printf("\nTo generate logs:\n")
	tw.printf("1. Run: honeypot\n")
	tw.printf("2. Visit: %s\n", report.ServerURL)
	tw.printf("3. Try some fake login attempts\n")
	tw.printf("4. Run this tool again to see results!\n")
}

func writeSummary(tw *textWriter, s Summary) {
	tw.printf("\nHONEYPOT SUMMARY\n")
	tw.rule("=", 50)
	tw.printf("Total attempts: %d\n", s.Total)
	tw.printf("Unique IP addresses: %d\n", s.UniqueIPs)

	if len(s.TopUsernames) > 0 {
		tw.printf("\nMost common usernames:\n")
		for _, c := range s.TopUsernames {
			tw.printf("  * %s: %s\n", c.Value, plural(c.Count, "attempt"))
		}
	}

	if len(s.TopPasswords) > 0 {
		tw.printf("\nMost common passwords:\n")
		for _, c := range s.TopPasswords {
			tw.printf("  * %s: %s\n", c.Value, plural(c.Count, "attempt"))
		}
	}

	if s.FirstAttempt != "" {
		tw.printf("\nTime range:\n")
		tw.printf("  First attempt: %s\n", s.FirstAttempt)
		tw.printf("  Last attempt: %s\n", s.LastAttempt)
	}
}

func writeDetailed(tw *textWriter, entries []DetailedEntry) {
	tw.printf("\nDETAILED LOGS (showing last %d attempts)\n", len(entries))
	tw.rule("=", 70)

	for _, e := range entries {
		tw.printf("\nATTEMPT #%d\n", e.Number)
		tw.rule("-", 30)
		tw.printf("Time: %s\n", e.Time)
		tw.printf("IP: %s\n", e.IP)
		tw.printf("Username: %s\n", e.Username)
		tw.printf("Password: %s\n", e.Password)
		tw.printf("User Agent: %s\n", e.UserAgent)
		tw.printf("Platform: %s\n", e.Platform)
		tw.printf("Language: %s\n", e.Language)
	}
}

func writePatterns(tw *textWriter, p Patterns) {
	tw.printf("\nATTACK PATTERN ANALYSIS\n")
	tw.rule("=", 50)

	tw.printf("Attempts by IP address:\n")
	for _, g := range p.ByIP {
		tw.printf("  * %s: %s\n", g.IP, plural(g.Attempts, "attempt"))
		if g.Attempts > 1 {
			tw.printf("    - Tried %s\n", plural(g.DistinctUsernames, "different username"))
		}
	}

	tw.printf("\nMost common username/password combinations:\n")
	if len(p.TopCombos) == 0 {
		tw.printf("  (none)\n")
	}
	for _, c := range p.TopCombos {
		tw.printf("  * %s/%s: %s\n", c.Username, c.Password, plural(c.Count, "attempt"))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
