package livequery

import (
	"time"

	"github.com/aristath/mission-control/internal/events"
	"github.com/aristath/mission-control/internal/modules/activities"
	"github.com/aristath/mission-control/internal/modules/agents"
	"github.com/aristath/mission-control/internal/modules/cron"
	"github.com/aristath/mission-control/internal/modules/health"
	"github.com/aristath/mission-control/internal/modules/meals"
	"github.com/aristath/mission-control/internal/modules/overview"
	"github.com/aristath/mission-control/internal/modules/progress"
	"github.com/aristath/mission-control/internal/modules/reports"
	"github.com/aristath/mission-control/internal/modules/trading"
)

const (
	maxDays  = 366
	maxLimit = 500
)

// Sources are the services the dashboard queries read from.
type Sources struct {
	Health     *health.Service
	Activities *activities.Repository
	Progress   *progress.Service
	Trading    *trading.Service
	Cron       *cron.Service
	Meals      *meals.Service
	Agents     *agents.Repository
	Reports    *reports.Service
	Overview   *overview.Service
	Now        func() time.Time
}

// NewDashboardRegistry registers one query per dashboard read.
func NewDashboardRegistry(src Sources) (*Registry, error) {
	now := src.Now
	if now == nil {
		now = time.Now
	}

	queries := []Query{
		{
			Name:   "health.latest",
			Tables: []string{events.TableHealth},
			Run: func(Args) (interface{}, error) {
				return src.Health.Repository().GetLatest()
			},
		},
		{
			Name:   "health.history",
			Tables: []string{events.TableHealth},
			Run: func(a Args) (interface{}, error) {
				return src.Health.Repository().GetHistory(a.Int("days", health.DefaultHistoryDays, maxDays))
			},
		},
		{
			Name:   "health.view",
			Tables: []string{events.TableHealth, events.TableZiolo},
			Run: func(Args) (interface{}, error) {
				return src.Health.GetView()
			},
		},
		{
			Name:   "activities.list",
			Tables: []string{events.TableActivities},
			Run: func(a Args) (interface{}, error) {
				return src.Activities.List(a.Int("days", 7, maxDays))
			},
		},
		{
			Name:   "progress.view",
			Tables: []string{events.TableCharacter, events.TableZiolo},
			Run: func(Args) (interface{}, error) {
				return src.Progress.GetView()
			},
		},
		{
			Name:   "trading.strategies",
			Tables: []string{events.TableStrategies},
			Run: func(Args) (interface{}, error) {
				return src.Trading.Repository().ListStrategies()
			},
		},
		{
			Name:   "trading.trades",
			Tables: []string{events.TableTradeLog},
			Run: func(a Args) (interface{}, error) {
				return src.Trading.Repository().RecentTrades(a.Int("limit", trading.DefaultRecentTrades, maxLimit))
			},
		},
		{
			Name:   "trading.view",
			Tables: []string{events.TableStrategies, events.TableTradeLog},
			Run: func(Args) (interface{}, error) {
				return src.Trading.GetView()
			},
		},
		{
			Name:   "cron.jobs",
			Tables: []string{events.TableCronJobs},
			Run: func(Args) (interface{}, error) {
				return src.Cron.Repository().List()
			},
		},
		{
			Name:   "cron.view",
			Tables: []string{events.TableCronJobs, events.TableHealth},
			Run: func(Args) (interface{}, error) {
				return src.Cron.GetView()
			},
		},
		{
			Name:   "meals.log",
			Tables: []string{events.TableMealLog},
			Run: func(a Args) (interface{}, error) {
				return src.Meals.Repository().GetLog(a.Int("days", meals.DefaultLogDays, maxDays))
			},
		},
		{
			Name:   "meals.latestPlan",
			Tables: []string{events.TableMealPlans},
			Run: func(Args) (interface{}, error) {
				return src.Meals.Repository().LatestPlan()
			},
		},
		{
			Name:   "meals.view",
			Tables: []string{events.TableMealLog, events.TableMealPlans},
			Run: func(Args) (interface{}, error) {
				return src.Meals.GetView(now())
			},
		},
		{
			Name:   "agents.list",
			Tables: []string{events.TableAgentStatus},
			Run: func(Args) (interface{}, error) {
				return src.Agents.List()
			},
		},
		{
			Name:   "reports.list",
			Tables: []string{events.TableReports},
			Run: func(a Args) (interface{}, error) {
				return src.Reports.Repository().ListReports(
					a.String("agent"), a.String("type"), a.Int("limit", reports.DefaultListLimit, maxLimit),
				)
			},
		},
		{
			Name:   "reports.timeline",
			Tables: []string{events.TableReports, events.TableWeeklyReports},
			Run: func(a Args) (interface{}, error) {
				return src.Reports.Timeline(a.String("agent"), now())
			},
		},
		{
			Name:   "weekly.list",
			Tables: []string{events.TableWeeklyReports},
			Run: func(a Args) (interface{}, error) {
				return src.Reports.Repository().ListWeekly(a.String("domain"))
			},
		},
		{
			Name: "overview",
			Tables: []string{
				events.TableHealth, events.TableStrategies, events.TableTradeLog,
				events.TableMealLog, events.TableMealPlans, events.TableZiolo,
				events.TableCharacter, events.TableCronJobs, events.TableReports,
			},
			Run: func(Args) (interface{}, error) {
				return src.Overview.Get(now())
			},
		},
	}

	registry := NewRegistry()
	for _, q := range queries {
		if err := registry.Register(q); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
