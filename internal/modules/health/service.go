package health

import (
	"fmt"
	"math"

	"github.com/aristath/mission-control/internal/modules/progress"
	"github.com/rs/zerolog"
)

const (
	// DefaultHistoryDays is the chart window on the health page.
	DefaultHistoryDays = 14
	// hrvScaleFloor keeps short bars readable when every reading is low.
	hrvScaleFloor = 80
	// sleepScaleHours is the full-height bar.
	sleepScaleHours = 10
)

// Band classifies a reading for colouring.
type Band string

const (
	BandGood Band = "good"
	BandFair Band = "fair"
	BandPoor Band = "poor"
)

// HRVBand: good from 65ms, fair from 50ms.
func HRVBand(hrv float64) Band {
	switch {
	case hrv >= 65:
		return BandGood
	case hrv >= 50:
		return BandFair
	default:
		return BandPoor
	}
}

// SleepBand: good from a score of 80, fair from 60.
func SleepBand(score float64) Band {
	switch {
	case score >= 80:
		return BandGood
	case score >= 60:
		return BandFair
	default:
		return BandPoor
	}
}

// Bar is one point on a health bar chart.
type Bar struct {
	Date  string  `json:"date"`
	Label string  `json:"label"` // MM-DD
	Value float64 `json:"value"`
	Pct   float64 `json:"pct"`
	Band  Band    `json:"band"`
}

// View is the health page aggregate.
type View struct {
	Latest *Snapshot          `json:"latest"`
	HRV    []Bar              `json:"hrv"`
	MaxHRV float64            `json:"maxHrv"`
	Sleep  []Bar              `json:"sleep"`
	Ziolo  progress.ZioloCard `json:"ziolo"`
}

// BuildView folds the latest snapshot, ascending history and tracker into the page.
func BuildView(latest *Snapshot, history []Snapshot, ziolo *progress.ZioloTracker) View {
	var hrvRows, sleepRows []Snapshot
	for _, s := range history {
		if s.HRV != nil {
			hrvRows = append(hrvRows, s)
		}
		if s.SleepHours != nil {
			sleepRows = append(sleepRows, s)
		}
	}
	hrvRows = lastN(hrvRows, DefaultHistoryDays)
	sleepRows = lastN(sleepRows, DefaultHistoryDays)

	maxHRV := float64(hrvScaleFloor)
	for _, s := range hrvRows {
		maxHRV = math.Max(maxHRV, *s.HRV)
	}

	view := View{
		Latest: latest,
		HRV:    make([]Bar, 0, len(hrvRows)),
		MaxHRV: maxHRV,
		Sleep:  make([]Bar, 0, len(sleepRows)),
		Ziolo:  progress.NewZioloCard(ziolo),
	}

	for _, s := range hrvRows {
		view.HRV = append(view.HRV, Bar{
			Date:  s.Date,
			Label: shortLabel(s.Date),
			Value: *s.HRV,
			Pct:   *s.HRV / maxHRV * 100,
			Band:  HRVBand(*s.HRV),
		})
	}

	for _, s := range sleepRows {
		score := 0.0
		if s.SleepScore != nil {
			score = *s.SleepScore
		}
		view.Sleep = append(view.Sleep, Bar{
			Date:  s.Date,
			Label: shortLabel(s.Date),
			Value: math.Round(*s.SleepHours*10) / 10,
			Pct:   *s.SleepHours / sleepScaleHours * 100,
			Band:  SleepBand(score),
		})
	}

	return view
}

func lastN(rows []Snapshot, n int) []Snapshot {
	if len(rows) > n {
		return rows[len(rows)-n:]
	}
	return rows
}

func shortLabel(date string) string {
	if len(date) >= 10 {
		return date[5:10]
	}
	return date
}

// ZioloSource provides the habit tracker shown on the health page.
type ZioloSource interface {
	GetZiolo() (*progress.ZioloTracker, error)
}

// Service builds the health page view
type Service struct {
	repo  *Repository
	ziolo ZioloSource
	log   zerolog.Logger
}

// NewService creates a new health service
func NewService(repo *Repository, ziolo ZioloSource, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		ziolo: ziolo,
		log:   log.With().Str("service", "health").Logger(),
	}
}

// Repository exposes the underlying repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

// GetView loads the latest snapshot, the chart window and the tracker.
func (s *Service) GetView() (*View, error) {
	latest, err := s.repo.GetLatest()
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	history, err := s.repo.GetHistory(DefaultHistoryDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var tracker *progress.ZioloTracker
	if s.ziolo != nil {
		tracker, err = s.ziolo.GetZiolo()
		if err != nil {
			return nil, fmt.Errorf("failed to load ziolo tracker: %w", err)
		}
	}

	view := BuildView(latest, history, tracker)
	return &view, nil
}
