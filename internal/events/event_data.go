// Package events provides the in-process change bus that drives live queries and event streams.
package events

import (
	"time"
)

// EventType identifies what changed.
type EventType string

const (
	HealthUpdated       EventType = "HEALTH_UPDATED"
	ActivityAdded       EventType = "ACTIVITY_ADDED"
	CharacterUpdated    EventType = "CHARACTER_UPDATED"
	ZioloUpdated        EventType = "ZIOLO_UPDATED"
	StrategyUpdated     EventType = "STRATEGY_UPDATED"
	TradeLogged         EventType = "TRADE_LOGGED"
	CronJobUpdated      EventType = "CRON_JOB_UPDATED"
	MealLogReplaced     EventType = "MEAL_LOG_REPLACED"
	MealPlanUpdated     EventType = "MEAL_PLAN_UPDATED"
	AgentStatusUpdated  EventType = "AGENT_STATUS_UPDATED"
	WeeklyReportUpdated EventType = "WEEKLY_REPORT_UPDATED"
	ReportUpdated       EventType = "REPORT_UPDATED"
	BackupCompleted     EventType = "BACKUP_COMPLETED"
	ErrorOccurred       EventType = "ERROR_OCCURRED"
)

// Table names, used as live-query dependency keys.
const (
	TableHealth        = "health_snapshots"
	TableActivities    = "activities"
	TableCharacter     = "tes_character"
	TableZiolo         = "ziolo_tracker"
	TableStrategies    = "trading_strategies"
	TableTradeLog      = "trade_log"
	TableCronJobs      = "cron_jobs"
	TableMealLog       = "meal_log"
	TableMealPlans     = "meal_plans"
	TableAgentStatus   = "agent_status"
	TableWeeklyReports = "weekly_reports"
	TableReports       = "reports"
)

var tableByType = map[EventType]string{
	HealthUpdated:       TableHealth,
	ActivityAdded:       TableActivities,
	CharacterUpdated:    TableCharacter,
	ZioloUpdated:        TableZiolo,
	StrategyUpdated:     TableStrategies,
	TradeLogged:         TableTradeLog,
	CronJobUpdated:      TableCronJobs,
	MealLogReplaced:     TableMealLog,
	MealPlanUpdated:     TableMealPlans,
	AgentStatusUpdated:  TableAgentStatus,
	WeeklyReportUpdated: TableWeeklyReports,
	ReportUpdated:       TableReports,
}

// Table returns the table a change event touches, or "" for non-data events.
func (t EventType) Table() string {
	return tableByType[t]
}

// AllChangeTypes lists every event type that corresponds to a table mutation.
func AllChangeTypes() []EventType {
	return []EventType{
		HealthUpdated, ActivityAdded, CharacterUpdated, ZioloUpdated,
		StrategyUpdated, TradeLogged, CronJobUpdated, MealLogReplaced,
		MealPlanUpdated, AgentStatusUpdated, WeeklyReportUpdated, ReportUpdated,
	}
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type" msgpack:"type"`
	Timestamp time.Time              `json:"timestamp" msgpack:"timestamp"`
	Module    string                 `json:"module" msgpack:"module"`
	Data      map[string]interface{} `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Table is a shorthand for e.Type.Table().
func (e *Event) Table() string {
	return e.Type.Table()
}
