package challenge

import (
	"sort"
	"time"
)

// ChallengeLength is the nominal challenge length in days. The current day
// never advances past it, no matter how long ago the user enrolled.
const ChallengeLength = 28

// Service derives a user's challenge state from their raw activity record and
// the catalog. All methods are pure: they never touch storage, never block,
// and degrade to zero values instead of failing on bad input, because a
// wrong-but-plausible number in a progress UI beats a crash.
type Service struct {
	catalog *Catalog
}

// NewService builds a derivation service over a loaded catalog.
func NewService(catalog *Catalog) *Service {
	return &Service{catalog: catalog}
}

// Catalog exposes the underlying curriculum for read-only queries.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// CurrentDay computes which challenge day the user is on. Only the calendar
// date of enrollment matters; time-of-day and timezone offsets are dropped by
// truncating both sides to UTC dates before subtracting. Malformed or
// future-dated start dates yield day 1.
func (s *Service) CurrentDay(startDate string, now time.Time) int {
	start, err := parseStartDate(startDate)
	if err != nil {
		return 1
	}
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	nowUTC := now.UTC()
	today := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)

	day := int(today.Sub(startDay).Hours()/24) + 1
	if day < 1 {
		return 1
	}
	if day > ChallengeLength {
		return ChallengeLength
	}
	return day
}

func parseStartDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Streak returns the length of the consecutive run of completed days ending
// at currentDay and walking backward. A streak "ending today" requires today
// to count: if currentDay itself is not completed, the streak is 0.
func (s *Service) Streak(daysCompleted []int, currentDay int) int {
	completed := make(map[int]bool, len(daysCompleted))
	for _, d := range daysCompleted {
		completed[d] = true
	}

	streak := 0
	for day := currentDay; day >= 1 && completed[day]; day-- {
		streak++
	}
	return streak
}

// Points recomputes the user's total score from scratch. It is a pure
// function of the record: solved problems score by difficulty, the single
// highest streak tier reached adds its bonus (tiers are exclusive, not
// additive), each approved Skool post adds its bonus, and each bonus problem
// adds a flat amount. Unknown problem ids contribute nothing.
func (s *Service) Points(p *ProgressData) int {
	if p == nil {
		return 0
	}
	points := 0

	for key, ids := range p.ProblemsSolved {
		day, ok := dayFromKey(key)
		if !ok {
			continue
		}
		for _, id := range ids {
			problem := s.catalog.Problem(day, id)
			if problem == nil {
				continue
			}
			points += s.difficultyPoints(problem.Difficulty)
		}
	}

	switch {
	case p.BestStreak >= 28:
		points += s.catalog.pointValue("streak_28", 250)
	case p.BestStreak >= 14:
		points += s.catalog.pointValue("streak_14", 100)
	case p.BestStreak >= 7:
		points += s.catalog.pointValue("streak_7", 50)
	}

	points += p.ApprovedSkoolCount() * s.catalog.pointValue("skool_post_approved", 30)
	points += len(p.BonusProblems) * s.catalog.pointValue("bonus_problem", 5)

	return points
}

func (s *Service) difficultyPoints(difficulty string) int {
	switch difficulty {
	case "Easy", "easy":
		return s.catalog.pointValue("easy", 10)
	case "Medium", "medium":
		return s.catalog.pointValue("medium", 20)
	case "Hard", "hard":
		return s.catalog.pointValue("hard", 40)
	default:
		return s.catalog.pointValue("easy", 10)
	}
}

// NewAchievements returns badges the user just earned: the difference between
// what the record qualifies for and what it already holds. It never returns
// an id the user has, so the achievement set only ever grows. Streak badges
// stack — jumping from 0 to a 28 best streak unlocks all three at once.
func (s *Service) NewAchievements(p *ProgressData) []string {
	if p == nil {
		return nil
	}
	var unlocked []string
	grant := func(id string) {
		if !p.HasAchievement(id) {
			unlocked = append(unlocked, id)
		}
	}

	if p.TotalProblemsSolved >= 1 {
		grant("first_problem")
	}

	if p.BestStreak >= 7 {
		grant("streak_7")
	}
	if p.BestStreak >= 14 {
		grant("streak_14")
	}
	if p.BestStreak >= 28 {
		grant("streak_28")
	}

	if !p.HasAchievement("hard_problem") && s.solvedHardProblem(p) {
		unlocked = append(unlocked, "hard_problem")
	}

	if p.ApprovedSkoolCount() >= 3 {
		grant("community_star")
	}

	return unlocked
}

func (s *Service) solvedHardProblem(p *ProgressData) bool {
	for _, ids := range p.ProblemsSolved {
		for _, id := range ids {
			problem := s.catalog.ProblemByID(id)
			if problem != nil && problem.Difficulty == "Hard" {
				return true
			}
		}
	}
	return false
}

// IsDayComplete reports whether every catalog problem for the day has been
// solved. A day with no catalog problems is never complete. Extra ids in the
// solved set are ignored.
func (s *Service) IsDayComplete(day int, problemsSolved map[string][]string) bool {
	required := s.catalog.DayProblems(day)
	if len(required) == 0 {
		return false
	}

	solved := make(map[string]bool)
	for _, id := range problemsSolved[DayKey(day)] {
		solved[id] = true
	}
	for _, problem := range required {
		if !solved[problem.ID] {
			return false
		}
	}
	return true
}

// Refresh recomputes every derived field on the record and returns any newly
// unlocked achievements, which it has already appended to the record. Callers
// run this after each mutation so the stored streaks and points can never
// drift from the raw solve data.
func (s *Service) Refresh(p *ProgressData, now time.Time) []string {
	if p == nil {
		return nil
	}

	currentDay := s.CurrentDay(p.StartDate, now)

	var completed []int
	for key := range p.ProblemsSolved {
		day, ok := dayFromKey(key)
		if !ok {
			continue
		}
		if s.IsDayComplete(day, p.ProblemsSolved) {
			completed = append(completed, day)
		}
	}
	sort.Ints(completed)
	p.DaysCompleted = completed

	p.CurrentStreak = s.Streak(p.DaysCompleted, currentDay)
	if p.CurrentStreak > p.BestStreak {
		p.BestStreak = p.CurrentStreak
	}

	p.Points = s.Points(p)

	unlocked := s.NewAchievements(p)
	p.Achievements = append(p.Achievements, unlocked...)
	return unlocked
}
