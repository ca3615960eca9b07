// Package overview builds the home page: headline KPIs from every module plus a mixed activity feed.
package overview

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aristath/mission-control/internal/modules/cron"
	"github.com/aristath/mission-control/internal/modules/health"
	"github.com/aristath/mission-control/internal/modules/meals"
	"github.com/aristath/mission-control/internal/modules/progress"
	"github.com/aristath/mission-control/internal/modules/reports"
	"github.com/aristath/mission-control/internal/modules/trading"
	"github.com/aristath/mission-control/internal/utils"
	"github.com/rs/zerolog"
)

const (
	// feedSize caps the activity feed.
	feedSize = 15
	// feedReports and feedTrades are how many of each the feed draws from.
	feedReports = 5
	feedTrades  = 5
)

// Feed item statuses.
const (
	FeedOK    = "ok"
	FeedError = "error"
	FeedWarn  = "warn"
)

// EquityCard is the live portfolio headline.
type EquityCard struct {
	TotalEquity float64               `json:"totalEquity"`
	PnL1d       float64               `json:"pnl1d"`
	Positions   []trading.PositionRow `json:"positions"`
}

// TodayMeals is what has been logged today against today's plan.
type TodayMeals struct {
	Date        string   `json:"date"`
	Kcal        float64  `json:"kcal"`
	Protein     float64  `json:"protein"`
	Items       int      `json:"items"`
	PlannedKcal *float64 `json:"plannedKcal,omitempty"`
}

// ZioloSummary is the habit streak headline.
type ZioloSummary struct {
	CurrentStreak  int  `json:"currentStreak"`
	MonthlyUseDays int  `json:"monthlyUseDays"`
	MonthlyGoal    int  `json:"monthlyGoal"`
	OverBudget     bool `json:"overBudget"`
}

// CharacterSummary is the progress headline.
type CharacterSummary struct {
	Level   int     `json:"level"`
	TotalXP float64 `json:"totalXp"`
}

// FeedItem is one entry of the activity feed.
type FeedItem struct {
	ID        string `json:"id"`
	Time      int64  `json:"time"`
	TimeLabel string `json:"timeLabel"`
	Status    string `json:"status"`
	Label     string `json:"label"`
	Detail    string `json:"detail"`
}

// Overview is the home page aggregate.
type Overview struct {
	Health    *health.Snapshot  `json:"health"`
	Equity    EquityCard        `json:"equity"`
	Meals     TodayMeals        `json:"meals"`
	Ziolo     ZioloSummary      `json:"ziolo"`
	Character *CharacterSummary `json:"character"`
	Feed      []FeedItem        `json:"feed"`
}

// Inputs are the rows the overview is folded from.
type Inputs struct {
	Health     *health.Snapshot
	Strategies []trading.Strategy
	Plan       *meals.Plan
	MealLog    []meals.Entry
	Ziolo      *progress.ZioloTracker
	Character  *progress.CharacterState
	CronJobs   []cron.Job
	Reports    []reports.Summary
	Trades     []trading.Trade
}

// Build folds the inputs as of now; today is evaluated in loc.
func Build(in Inputs, now time.Time, loc *time.Location) Overview {
	today := utils.FormatDate(now, loc)

	equity, pnl, _ := trading.LiveTotals(in.Strategies)
	o := Overview{
		Health: in.Health,
		Equity: EquityCard{TotalEquity: equity, PnL1d: pnl, Positions: livePositions(in.Strategies)},
		Meals:  todayMeals(in.Plan, in.MealLog, today),
		Ziolo:  zioloSummary(in.Ziolo),
		Feed:   BuildFeed(in.CronJobs, in.Reports, in.Trades, now),
	}
	if in.Character != nil {
		o.Character = &CharacterSummary{Level: in.Character.Level, TotalXP: in.Character.TotalXP}
	}
	return o
}

// livePositions lists live positions with a positive notional.
func livePositions(strategies []trading.Strategy) []trading.PositionRow {
	rows := []trading.PositionRow{}
	for _, s := range strategies {
		if s.Mode != trading.ModeLive {
			continue
		}
		for _, p := range trading.VisiblePositions(s.PositionBreakdown) {
			if p.Notional != nil && *p.Notional > 0 {
				rows = append(rows, p)
			}
		}
	}
	return rows
}

func todayMeals(plan *meals.Plan, log []meals.Entry, today string) TodayMeals {
	var logged []meals.Entry
	for _, e := range log {
		if e.Date == today {
			logged = append(logged, e)
		}
	}
	totals := meals.SumEntries(logged)
	card := TodayMeals{Date: today, Kcal: totals.Kcal, Protein: totals.Protein, Items: len(logged)}

	if plan != nil {
		for _, d := range plan.Days {
			if d.Date == today {
				kcal := d.TotalKcal
				card.PlannedKcal = &kcal
				break
			}
		}
	}
	return card
}

func zioloSummary(z *progress.ZioloTracker) ZioloSummary {
	if z == nil {
		return ZioloSummary{MonthlyGoal: progress.DefaultMonthlyGoal}
	}
	return ZioloSummary{
		CurrentStreak:  z.CurrentStreak,
		MonthlyUseDays: z.MonthlyUseDays,
		MonthlyGoal:    z.MonthlyGoal,
		OverBudget:     z.MonthlyUseDays > z.MonthlyGoal,
	}
}

// BuildFeed merges job runs, reports and trades, newest first.
func BuildFeed(jobs []cron.Job, summaries []reports.Summary, trades []trading.Trade, now time.Time) []FeedItem {
	items := []FeedItem{}

	for _, j := range jobs {
		if j.LastRunAt == nil {
			continue
		}
		status, detail := FeedWarn, "unknown"
		switch j.Status() {
		case cron.StatusOK:
			status, detail = FeedOK, "Completed"
		case cron.StatusError:
			status, detail = FeedError, cron.StatusError
		default:
			if j.Status() != "" {
				detail = j.Status()
			}
		}
		items = append(items, FeedItem{
			ID:     "cron-" + j.JobID,
			Time:   *j.LastRunAt,
			Status: status,
			Label:  "Cron: " + j.Name,
			Detail: detail,
		})
	}

	for i, r := range summaries {
		if i >= feedReports {
			break
		}
		agent := r.Agent
		if agent == "" {
			agent = "system"
		}
		items = append(items, FeedItem{
			ID:     "report-" + r.ReportID,
			Time:   r.CreatedAt,
			Status: FeedOK,
			Label:  "Report: " + r.Title,
			Detail: agent,
		})
	}

	for i, t := range trades {
		if i >= feedTrades {
			break
		}
		side := strings.ToUpper(t.Side)
		if side == "" {
			side = "TRADE"
		}
		items = append(items, FeedItem{
			ID:     fmt.Sprintf("trade-%d", t.ID),
			Time:   t.UpdatedAt,
			Status: FeedOK,
			Label:  side + " " + t.Symbol,
			Detail: fmt.Sprintf("%g @ $%.2f", t.Quantity, t.Price),
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Time > items[j].Time })
	if len(items) > feedSize {
		items = items[:feedSize]
	}
	for i := range items {
		ts := items[i].Time
		items[i].TimeLabel = cron.TimeAgo(&ts, now)
	}
	return items
}

// Service loads every module the home page draws from
type Service struct {
	health   *health.Repository
	trading  *trading.Repository
	meals    *meals.Repository
	progress *progress.Repository
	cron     *cron.Repository
	reports  *reports.Repository
	loc      *time.Location
	log      zerolog.Logger
}

// NewService creates a new overview service
func NewService(
	healthRepo *health.Repository,
	tradingRepo *trading.Repository,
	mealsRepo *meals.Repository,
	progressRepo *progress.Repository,
	cronRepo *cron.Repository,
	reportsRepo *reports.Repository,
	loc *time.Location,
	log zerolog.Logger,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		health:   healthRepo,
		trading:  tradingRepo,
		meals:    mealsRepo,
		progress: progressRepo,
		cron:     cronRepo,
		reports:  reportsRepo,
		loc:      loc,
		log:      log.With().Str("service", "overview").Logger(),
	}
}

// Get loads the inputs and builds the overview as of now.
func (s *Service) Get(now time.Time) (*Overview, error) {
	defer utils.OperationTimer("overview", s.log)()

	var in Inputs
	var err error

	if in.Health, err = s.health.GetLatest(); err != nil {
		return nil, fmt.Errorf("failed to load health: %w", err)
	}
	if in.Strategies, err = s.trading.ListStrategies(); err != nil {
		return nil, fmt.Errorf("failed to load strategies: %w", err)
	}
	if in.Trades, err = s.trading.RecentTrades(feedTrades); err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	if in.Plan, err = s.meals.LatestPlan(); err != nil {
		return nil, fmt.Errorf("failed to load meal plan: %w", err)
	}
	if in.MealLog, err = s.meals.GetLog(meals.DefaultLogDays); err != nil {
		return nil, fmt.Errorf("failed to load meal log: %w", err)
	}
	if in.Ziolo, err = s.progress.GetZiolo(); err != nil {
		return nil, fmt.Errorf("failed to load ziolo tracker: %w", err)
	}
	if in.Character, err = s.progress.GetCharacter(); err != nil {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}
	if in.CronJobs, err = s.cron.List(); err != nil {
		return nil, fmt.Errorf("failed to load cron jobs: %w", err)
	}
	if in.Reports, err = s.reports.ListReports("", "", feedReports); err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}

	o := Build(in, now, s.loc)
	return &o, nil
}
