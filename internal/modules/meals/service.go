package meals

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/mission-control/internal/utils"
	"github.com/rs/zerolog"
)

// DefaultLogDays is the meal log window on the meals page.
const DefaultLogDays = 7

// Fixed macro targets in grams for the comparison bars.
const (
	TargetCarbs   = 230
	TargetProtein = 100
	TargetFat     = 60
)

// Kcal status of a logged day against its plan.
const (
	KcalOver   = "over"
	KcalUnder  = "under"
	KcalOnPlan = "on-plan"
)

// Totals are summed macros.
type Totals struct {
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

func (t Totals) add(e Entry) Totals {
	return Totals{
		Kcal:    t.Kcal + e.Kcal,
		Protein: t.Protein + e.Protein,
		Carbs:   t.Carbs + e.Carbs,
		Fat:     t.Fat + e.Fat,
	}
}

func (t Totals) rounded() Totals {
	return Totals{
		Kcal:    math.Round(t.Kcal),
		Protein: math.Round(t.Protein),
		Carbs:   math.Round(t.Carbs),
		Fat:     math.Round(t.Fat),
	}
}

// SumEntries adds up the macros of entries.
func SumEntries(entries []Entry) Totals {
	var t Totals
	for _, e := range entries {
		t = t.add(e)
	}
	return t
}

// DayLog is every entry logged on one date.
type DayLog struct {
	Date    string  `json:"date"`
	Entries []Entry `json:"entries"`
	Totals  Totals  `json:"totals"`
}

// GroupByDate folds log entries into per-date days, newest date first.
func GroupByDate(entries []Entry) []DayLog {
	index := make(map[string]int)
	days := []DayLog{}
	for _, e := range entries {
		i, ok := index[e.Date]
		if !ok {
			i = len(days)
			index[e.Date] = i
			days = append(days, DayLog{Date: e.Date, Entries: []Entry{}})
		}
		days[i].Entries = append(days[i].Entries, e)
		days[i].Totals = days[i].Totals.add(e)
	}
	sort.SliceStable(days, func(a, b int) bool { return days[a].Date > days[b].Date })
	return days
}

// AverageLogged is the rounded mean of per-day totals over days that have entries.
// Returns nil when nothing is logged.
func AverageLogged(days []DayLog) *Totals {
	var sum Totals
	n := 0
	for _, d := range days {
		if len(d.Entries) == 0 {
			continue
		}
		sum.Kcal += d.Totals.Kcal
		sum.Protein += d.Totals.Protein
		sum.Carbs += d.Totals.Carbs
		sum.Fat += d.Totals.Fat
		n++
	}
	if n == 0 {
		return nil
	}
	avg := Totals{
		Kcal:    sum.Kcal / float64(n),
		Protein: sum.Protein / float64(n),
		Carbs:   sum.Carbs / float64(n),
		Fat:     sum.Fat / float64(n),
	}.rounded()
	return &avg
}

// AveragePlan is the rounded mean of plan day totals, or nil for an empty plan.
func AveragePlan(days []PlanDay) *Totals {
	if len(days) == 0 {
		return nil
	}
	var sum Totals
	for _, d := range days {
		sum.Kcal += d.TotalKcal
		sum.Protein += d.TotalProtein
		sum.Carbs += d.TotalCarbs
		sum.Fat += d.TotalFat
	}
	n := float64(len(days))
	avg := Totals{Kcal: sum.Kcal / n, Protein: sum.Protein / n, Carbs: sum.Carbs / n, Fat: sum.Fat / n}.rounded()
	return &avg
}

// MacroBar compares planned and logged grams against a fixed target.
type MacroBar struct {
	Label      string  `json:"label"`
	Target     float64 `json:"target"`
	Planned    float64 `json:"planned"`
	Actual     float64 `json:"actual"`
	PlannedPct float64 `json:"plannedPct"`
	ActualPct  float64 `json:"actualPct"`
}

// NewMacroBar clamps both bars to 100% of target.
func NewMacroBar(label string, planned, actual, target float64) MacroBar {
	return MacroBar{
		Label:      label,
		Target:     target,
		Planned:    planned,
		Actual:     actual,
		PlannedPct: pctOf(planned, target),
		ActualPct:  pctOf(actual, target),
	}
}

func pctOf(v, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(v/target*100, 100)
}

// KcalStatus classifies logged kcal against the plan: over above 110%, under below 80%.
func KcalStatus(logged, planned float64) string {
	switch {
	case logged > planned*1.1:
		return KcalOver
	case logged < planned*0.8:
		return KcalUnder
	default:
		return KcalOnPlan
	}
}

// DayCard is one plan day next to what was actually logged that date.
type DayCard struct {
	PlanDay
	IsToday      bool       `json:"isToday"`
	HasLog       bool       `json:"hasLog"`
	Logged       []Entry    `json:"logged"`
	LoggedTotals Totals     `json:"loggedTotals"`
	KcalStatus   string     `json:"kcalStatus,omitempty"`
	Bars         []MacroBar `json:"bars"`
}

// View is the meals page aggregate.
type View struct {
	Plan          *Plan     `json:"plan"`
	AverageActual *Totals   `json:"averageActual"`
	AveragePlan   *Totals   `json:"averagePlan"`
	LoggedDays    int       `json:"loggedDays"`
	Days          []DayCard `json:"days"`
	Log           []DayLog  `json:"log"`
}

// BuildView matches plan days to the log by canonical date. now decides which
// card is today, in loc.
func BuildView(plan *Plan, log []Entry, now time.Time, loc *time.Location) View {
	logDays := GroupByDate(log)
	byDate := make(map[string]DayLog, len(logDays))
	for _, d := range logDays {
		byDate[d.Date] = d
	}

	view := View{
		Plan:          plan,
		AverageActual: AverageLogged(logDays),
		LoggedDays:    len(logDays),
		Days:          []DayCard{},
		Log:           logDays,
	}
	if plan == nil {
		return view
	}
	view.AveragePlan = AveragePlan(plan.Days)

	today := utils.FormatDate(now, loc)
	for _, pd := range plan.Days {
		card := DayCard{
			PlanDay: pd,
			IsToday: pd.Date != "" && pd.Date == today,
			Logged:  []Entry{},
		}
		if pd.Date != "" {
			if d, ok := byDate[pd.Date]; ok {
				card.Logged = d.Entries
				card.LoggedTotals = d.Totals
			}
		}
		card.HasLog = len(card.Logged) > 0
		actual := card.LoggedTotals.rounded()
		if card.HasLog {
			card.KcalStatus = KcalStatus(actual.Kcal, pd.TotalKcal)
		}
		card.Bars = []MacroBar{
			NewMacroBar("C", pd.TotalCarbs, actual.Carbs, TargetCarbs),
			NewMacroBar("P", pd.TotalProtein, actual.Protein, TargetProtein),
			NewMacroBar("F", pd.TotalFat, actual.Fat, TargetFat),
		}
		view.Days = append(view.Days, card)
	}
	return view
}

// Service builds the meals page view
type Service struct {
	repo *Repository
	loc  *time.Location
	log  zerolog.Logger
}

// NewService creates a new meals service
func NewService(repo *Repository, loc *time.Location, log zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo: repo,
		loc:  loc,
		log:  log.With().Str("service", "meals").Logger(),
	}
}

// Repository exposes the underlying repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

// GetView loads the latest plan and the last week of logged meals.
func (s *Service) GetView(now time.Time) (*View, error) {
	plan, err := s.repo.LatestPlan()
	if err != nil {
		return nil, fmt.Errorf("failed to load meal plan: %w", err)
	}
	log, err := s.repo.GetLog(DefaultLogDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal log: %w", err)
	}

	view := BuildView(plan, log, now, s.loc)
	return &view, nil
}
