package reports

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aristath/mission-control/internal/utils"
	"github.com/rs/zerolog"
)

// AllAgents disables the timeline agent filter.
const AllAgents = "all"

// Timeline item sources.
const (
	SourceReport = "report"
	SourceWeekly = "weekly"
)

// TimelineItem is a report or weekly report on the merged timeline.
type TimelineItem struct {
	Source      string   `json:"source"`
	ID          string   `json:"id"`
	Agent       string   `json:"agent"`
	ReportType  string   `json:"reportType"`
	Date        string   `json:"date"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	DeliveredTo []string `json:"deliveredTo"`
	HasMetrics  bool     `json:"hasMetrics"`
}

// TimelineGroup is one date bucket, in display order.
type TimelineGroup struct {
	Label string         `json:"label"`
	Items []TimelineItem `json:"items"`
}

// BucketLabel names the bucket for an ISO date relative to today.
func BucketLabel(date, today string) string {
	diff, ok := utils.DaysBetween(date, today)
	if !ok {
		return date
	}
	switch {
	case diff == 0:
		return "Today"
	case diff == 1:
		return "Yesterday"
	case diff >= 2 && diff <= 6:
		return fmt.Sprintf("%dd ago", diff)
	default:
		return date
	}
}

// MergeTimeline combines both sources, applies the agent filter (weekly domains go
// through AgentForDomain) and sorts by date descending, keeping source order on ties.
func MergeTimeline(reports []Summary, weekly []WeeklyReport, agent string) []TimelineItem {
	filter := agent != "" && agent != AllAgents

	items := make([]TimelineItem, 0, len(reports)+len(weekly))
	for _, r := range reports {
		if filter && r.Agent != agent {
			continue
		}
		items = append(items, TimelineItem{
			Source:      SourceReport,
			ID:          r.ReportID,
			Agent:       r.Agent,
			ReportType:  r.ReportType,
			Date:        r.Date,
			Title:       r.Title,
			Summary:     r.Summary,
			DeliveredTo: r.DeliveredTo,
			HasMetrics:  r.HasMetrics,
		})
	}
	for _, w := range weekly {
		owner := AgentForDomain(w.Domain)
		if filter && owner != agent {
			continue
		}
		summary := ""
		if w.Summary != nil {
			summary = *w.Summary
		}
		items = append(items, TimelineItem{
			Source:      SourceWeekly,
			ID:          strconv.FormatInt(w.ID, 10),
			Agent:       owner,
			ReportType:  WeeklyReportType,
			Date:        w.ReportDate,
			Title:       w.Title,
			Summary:     summary,
			DeliveredTo: []string{},
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Date > items[j].Date })
	return items
}

// GroupTimeline buckets sorted items, preserving first-seen bucket order.
func GroupTimeline(items []TimelineItem, today string) []TimelineGroup {
	groups := []TimelineGroup{}
	index := make(map[string]int)
	for _, item := range items {
		label := BucketLabel(item.Date, today)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, TimelineGroup{Label: label, Items: []TimelineItem{}})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// BuildTimeline merges, filters and buckets both report sources as of now in loc.
func BuildTimeline(reports []Summary, weekly []WeeklyReport, agent string, now time.Time, loc *time.Location) []TimelineGroup {
	return GroupTimeline(MergeTimeline(reports, weekly, agent), utils.FormatDate(now, loc))
}

// Service builds the reports timeline
type Service struct {
	repo *Repository
	loc  *time.Location
	log  zerolog.Logger
}

// NewService creates a new reports service
func NewService(repo *Repository, loc *time.Location, log zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo: repo,
		loc:  loc,
		log:  log.With().Str("service", "reports").Logger(),
	}
}

// Repository exposes the underlying repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Timeline loads recent reports and every weekly report and groups them for agent.
func (s *Service) Timeline(agent string, now time.Time) ([]TimelineGroup, error) {
	listAgent := agent
	if listAgent == AllAgents {
		listAgent = ""
	}
	summaries, err := s.repo.ListReports(listAgent, "", DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}
	weekly, err := s.repo.ListWeekly("")
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly reports: %w", err)
	}

	done := utils.MeasureQuery("reports.timeline", s.log)
	groups := BuildTimeline(summaries, weekly, agent, now, s.loc)
	done(len(summaries) + len(weekly))
	return groups, nil
}
