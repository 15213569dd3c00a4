package progress

import (
	"context"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// ImprovementThreshold is the weekly rate, in percent, below which the
// weakest habit is called out for improvement.
const ImprovementThreshold = 70.0

// HabitRate pairs a habit with its weekly completion percentage.
type HabitRate struct {
	Habit models.Habit `json:"habit"`
	Rate  float64      `json:"rate"`
}

// Overview summarizes all habits for today.
type Overview struct {
	Date             string      `json:"date"`
	HabitCount       int         `json:"habitCount"`
	CompletedToday   int         `json:"completedToday"`
	CompletionRate   float64     `json:"completionRate"`
	Streak           int         `json:"streak"`
	Habits           []HabitRate `json:"habits"`
	Best             *HabitRate  `json:"best,omitempty"`
	NeedsImprovement *HabitRate  `json:"needsImprovement,omitempty"`
}

// Overview computes the summary shown on the progress screen from a single
// snapshot of both collections.
func (a *Aggregator) Overview(ctx context.Context) Overview {
	habits := a.habits.List(ctx)
	all := withoutOrphans(a.load(ctx), habits)
	now := a.records.Now()
	today := utils.DateKey(now)

	ov := Overview{
		Date:       today,
		HabitCount: len(habits),
		Habits:     make([]HabitRate, 0, len(habits)),
	}
	if len(habits) == 0 {
		return ov
	}

	ov.CompletedToday = all[today].CompletedCount()
	ov.CompletionRate = DailyCompletionRate(all[today], len(habits))
	ov.Streak = Streak(all, now)

	for _, h := range habits {
		ov.Habits = append(ov.Habits, HabitRate{Habit: h, Rate: weekly(all, h.ID, now).Percentage})
	}
	ov.Best, ov.NeedsImprovement = bestAndWorst(ov.Habits)
	return ov
}

// Improve returns the weakest habit when its weekly rate is below
// ImprovementThreshold, and nil otherwise.
func (o Overview) Improve() *HabitRate {
	if o.NeedsImprovement == nil || o.NeedsImprovement.Rate >= ImprovementThreshold {
		return nil
	}
	return o.NeedsImprovement
}

// bestAndWorst picks the first habit with the highest positive rate, and the
// habit to improve. For the latter a worst rate of 0 is treated as no pick
// yet, so a later habit below 100 replaces it.
func bestAndWorst(rates []HabitRate) (best, worst *HabitRate) {
	for i := range rates {
		cur := &rates[i]

		bestRate := 0.0
		if best != nil {
			bestRate = best.Rate
		}
		if cur.Rate > bestRate {
			best = cur
		}

		threshold := 100.0
		if worst != nil && worst.Rate != 0 {
			threshold = worst.Rate
		}
		if cur.Rate < threshold {
			worst = cur
		}
	}
	return best, worst
}
