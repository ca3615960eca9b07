// Package reports stores agent reports and weekly reports and merges them into one timeline.
package reports

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aristath/mission-control/internal/utils"
)

// DefaultListLimit is the ListReports limit when none is given.
const DefaultListLimit = 50

// Report is one agent-generated report.
type Report struct {
	ReportID        string          `json:"reportId"`
	Agent           string          `json:"agent"`
	ReportType      string          `json:"reportType"`
	Date            string          `json:"date"`
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	Content         string          `json:"content"`
	ContentOverflow *string         `json:"contentOverflow,omitempty"`
	Metrics         json.RawMessage `json:"metrics,omitempty"`
	DeliveredTo     []string        `json:"deliveredTo"`
	CreatedAt       int64           `json:"createdAt"`
}

// Validate checks required fields.
func (r *Report) Validate() error {
	required := []struct{ field, value string }{
		{"reportId", r.ReportID},
		{"agent", r.Agent},
		{"reportType", r.ReportType},
		{"title", r.Title},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is required", f.field)
		}
	}
	if len(r.Metrics) > 0 && !json.Valid(r.Metrics) {
		return fmt.Errorf("metrics must be valid JSON")
	}
	return utils.ValidateDate(r.Date)
}

// HasMetrics reports whether the report carries a non-null metrics document.
func (r *Report) HasMetrics() bool {
	trimmed := bytes.TrimSpace(r.Metrics)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Summary is a report without its content, as listed.
type Summary struct {
	ReportID    string   `json:"reportId"`
	Agent       string   `json:"agent"`
	ReportType  string   `json:"reportType"`
	Date        string   `json:"date"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	DeliveredTo []string `json:"deliveredTo"`
	CreatedAt   int64    `json:"createdAt"`
	HasMetrics  bool     `json:"hasMetrics"`
}

// WeeklyReport is one weekly domain review, keyed by (domain, reportDate).
type WeeklyReport struct {
	ID         int64   `json:"id"`
	Domain     string  `json:"domain"`
	ReportDate string  `json:"reportDate"`
	Title      string  `json:"title"`
	Summary    *string `json:"summary,omitempty"`
	SourcePath *string `json:"sourcePath,omitempty"`
	Content    *string `json:"content,omitempty"`
	UpdatedAt  int64   `json:"updatedAt"`
}

// Validate checks required fields.
func (w *WeeklyReport) Validate() error {
	if strings.TrimSpace(w.Domain) == "" {
		return fmt.Errorf("domain is required")
	}
	if strings.TrimSpace(w.Title) == "" {
		return fmt.Errorf("title is required")
	}
	return utils.ValidateDate(w.ReportDate)
}

// domainToAgent maps weekly report domains to the agent that writes them.
var domainToAgent = map[string]string{
	"coach": "coach",
	"marco": "marco",
	"qq":    "qq",
	"chef":  "chef",
}

// AgentForDomain returns the agent for a weekly domain; unknown domains pass through.
func AgentForDomain(domain string) string {
	if agent, ok := domainToAgent[domain]; ok {
		return agent
	}
	return domain
}
