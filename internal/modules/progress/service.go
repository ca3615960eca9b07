package progress

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// Dimensions in display order.
var Dimensions = []string{"Body", "Mind", "Wisdom", "Craft", "Connection"}

// DomainToDimension maps skill domains onto display dimensions. Several domains may
// share one dimension; unknown domains are ignored.
var DomainToDimension = map[string]string{
	"Movement": "Body",
	"Mind":     "Mind",
	"Money":    "Craft",
	"Systems":  "Wisdom",
	"Love":     "Connection",
	"Impact":   "Connection",
}

const (
	// NeutralDimensionScore is shown for dimensions with no contributing domain.
	NeutralDimensionScore = 50
	// DimensionFullMark is the radar chart scale.
	DimensionFullMark = 100
	// ringXPPadding stands in for "xp needed for the next level" in the level ring.
	ringXPPadding = 50
	// maxBadges is how many of the most recent badges the view shows.
	maxBadges = 12

	DefaultMonthlyGoal = 8
	DefaultYearlyGoal  = 96
	DefaultClassName   = "The Regulated Architect"
)

// RadarPoint is one dimension on the radar chart.
type RadarPoint struct {
	Dimension string `json:"dimension"`
	Value     int    `json:"value"`
	FullMark  int    `json:"fullMark"`
}

// ZioloCard summarises the habit tracker; used by the progress and health pages.
type ZioloCard struct {
	Present        bool    `json:"present"`
	CurrentStreak  int     `json:"currentStreak"`
	LastUseDate    string  `json:"lastUseDate,omitempty"`
	MonthlyUseDays int     `json:"monthlyUseDays"`
	MonthlyGoal    int     `json:"monthlyGoal"`
	MonthlyPct     float64 `json:"monthlyPct"`
	Remaining      int     `json:"remaining"`
	YearlyUseDays  int     `json:"yearlyUseDays"`
	YearlyGoal     int     `json:"yearlyGoal"`
	YearlyPct      float64 `json:"yearlyPct"`
}

// View is the progress page aggregate.
type View struct {
	HasCharacter bool                   `json:"hasCharacter"`
	Level        int                    `json:"level"`
	ClassName    string                 `json:"className"`
	XP           float64                `json:"xp"`
	TotalXP      float64                `json:"totalXp"`
	TotalEvents  int                    `json:"totalEvents"`
	RingProgress float64                `json:"ringProgress"`
	Radar        []RadarPoint           `json:"radar"`
	Badges       []string               `json:"badges"`
	Streaks      map[string]interface{} `json:"streaks"`
	Ziolo        ZioloCard              `json:"ziolo"`
}

// DomainScore is level*10 plus up to 10 points of fractional progress.
func DomainScore(d DomainProgress) float64 {
	frac := d.XPInLevel / math.Max(d.XPToNext, 1) * 10
	return d.Level*10 + math.Min(frac, 10)
}

// BuildRadar averages domain scores per dimension in fixed dimension order.
func BuildRadar(domains map[string]DomainProgress) []RadarPoint {
	scores := make(map[string][]float64, len(Dimensions))
	for name, d := range domains {
		if dim, ok := DomainToDimension[name]; ok {
			scores[dim] = append(scores[dim], DomainScore(d))
		}
	}

	radar := make([]RadarPoint, 0, len(Dimensions))
	for _, dim := range Dimensions {
		value := NeutralDimensionScore
		if s := scores[dim]; len(s) > 0 {
			sum := 0.0
			for _, v := range s {
				sum += v
			}
			value = int(math.Round(sum / float64(len(s))))
		}
		radar = append(radar, RadarPoint{Dimension: dim, Value: value, FullMark: DimensionFullMark})
	}
	return radar
}

// RingProgress is xp / (xp + 50) clamped to [0,1].
func RingProgress(xp float64) float64 {
	p := xp / math.Max(xp+ringXPPadding, 1)
	return math.Max(0, math.Min(1, p))
}

// RecentBadges returns the last 12 badges, newest first.
func RecentBadges(badges []string) []string {
	start := 0
	if len(badges) > maxBadges {
		start = len(badges) - maxBadges
	}
	out := make([]string, 0, len(badges)-start)
	for i := len(badges) - 1; i >= start; i-- {
		out = append(out, badges[i])
	}
	return out
}

// NewZioloCard builds the tracker card, falling back to default goals when absent.
func NewZioloCard(z *ZioloTracker) ZioloCard {
	card := ZioloCard{MonthlyGoal: DefaultMonthlyGoal, YearlyGoal: DefaultYearlyGoal}
	if z != nil {
		card.Present = true
		card.CurrentStreak = z.CurrentStreak
		card.LastUseDate = z.LastUseDate
		card.MonthlyUseDays = z.MonthlyUseDays
		card.YearlyUseDays = z.YearlyUseDays
		if z.MonthlyGoal > 0 {
			card.MonthlyGoal = z.MonthlyGoal
		}
		if z.YearlyGoal > 0 {
			card.YearlyGoal = z.YearlyGoal
		}
	}
	card.Remaining = max(0, card.MonthlyGoal-card.MonthlyUseDays)
	card.MonthlyPct = clampPct(float64(card.MonthlyUseDays) / float64(card.MonthlyGoal) * 100)
	card.YearlyPct = clampPct(float64(card.YearlyUseDays) / float64(card.YearlyGoal) * 100)
	return card
}

// BuildView folds character and tracker into the progress page. Both may be nil.
func BuildView(character *CharacterState, ziolo *ZioloTracker) View {
	view := View{
		ClassName: DefaultClassName,
		Radar:     BuildRadar(nil),
		Badges:    []string{},
		Streaks:   map[string]interface{}{},
		Ziolo:     NewZioloCard(ziolo),
	}
	if character == nil {
		return view
	}

	view.HasCharacter = true
	view.Level = character.Level
	view.XP = character.XP
	view.TotalXP = character.TotalXP
	view.RingProgress = RingProgress(character.XP)
	view.Radar = BuildRadar(character.Domains)
	view.Badges = RecentBadges(character.Badges)
	if character.ClassName != nil && *character.ClassName != "" {
		view.ClassName = *character.ClassName
	}
	if character.TotalEvents != nil {
		view.TotalEvents = *character.TotalEvents
	}
	if character.Streaks != nil {
		view.Streaks = character.Streaks
	}
	return view
}

func clampPct(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	return math.Min(100, p)
}

// Service builds the progress view from stored state
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new progress service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "progress").Logger(),
	}
}

// Repository exposes the underlying repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

// GetView loads both singletons and builds the page aggregate.
func (s *Service) GetView() (*View, error) {
	character, err := s.repo.GetCharacter()
	if err != nil {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}
	ziolo, err := s.repo.GetZiolo()
	if err != nil {
		return nil, fmt.Errorf("failed to load ziolo tracker: %w", err)
	}
	view := BuildView(character, ziolo)
	return &view, nil
}
