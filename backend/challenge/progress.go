package challenge

import (
	"fmt"
	"strconv"
	"strings"
)

// Submission review statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// BonusProblem is an extra problem the user solved outside the daily set,
// submitted as a LeetCode URL. Deduplicated by normalized URL.
type BonusProblem struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	SubmittedAt string `json:"submitted_at"`
}

// SkoolSubmission is a community-post proof awaiting admin review.
type SkoolSubmission struct {
	ID          string `json:"id"`
	Day         int    `json:"day"`
	URL         string `json:"url"`
	Status      string `json:"status"` // pending, approved, rejected
	SubmittedAt string `json:"submitted_at"`
	ReviewedAt  string `json:"reviewed_at,omitempty"`
}

// DayActivity is one heatmap cell: how much happened on a calendar date.
type DayActivity struct {
	Count      int      `json:"count"`
	Activities []string `json:"activities,omitempty"`
}

// ProgressData is a user's whole challenge state, stored as a single JSON
// document. Every field defaults to zero/empty; the engine treats a missing
// collection the same as an empty one.
type ProgressData struct {
	Enrolled            bool                      `json:"enrolled"`
	StartDate           string                    `json:"start_date,omitempty"`
	ProblemsSolved      map[string][]string       `json:"problems_solved,omitempty"`
	DaysCompleted       []int                     `json:"days_completed,omitempty"`
	TotalProblemsSolved int                       `json:"total_problems_solved"`
	CurrentStreak       int                       `json:"current_streak"`
	BestStreak          int                       `json:"best_streak"`
	Points              int                       `json:"points"`
	Achievements        []string                  `json:"achievements,omitempty"`
	BonusProblems       []BonusProblem            `json:"bonus_problems,omitempty"`
	SkoolSubmissions    []SkoolSubmission         `json:"skool_submissions,omitempty"`
	ActivityLog         map[string]DayActivity    `json:"activity_log,omitempty"`
	Trackers            map[string]int            `json:"trackers,omitempty"`
	TrackerLog          map[string]map[string]int `json:"tracker_log,omitempty"`
}

// DayKey formats the problems_solved map key for a day number.
func DayKey(day int) string {
	return fmt.Sprintf("day_%d", day)
}

// dayFromKey parses a "day_N" key back to N. Returns 0, false for anything
// that does not follow the format.
func dayFromKey(key string) (int, bool) {
	rest, found := strings.CutPrefix(key, "day_")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// HasSolved reports whether the problem is already recorded for the day.
func (p *ProgressData) HasSolved(day int, problemID string) bool {
	for _, id := range p.ProblemsSolved[DayKey(day)] {
		if id == problemID {
			return true
		}
	}
	return false
}

// MarkSolved records a solve with set semantics; solving the same problem
// twice is a no-op. Returns true when the solve was newly recorded.
func (p *ProgressData) MarkSolved(day int, problemID string) bool {
	if p.HasSolved(day, problemID) {
		return false
	}
	if p.ProblemsSolved == nil {
		p.ProblemsSolved = make(map[string][]string)
	}
	key := DayKey(day)
	p.ProblemsSolved[key] = append(p.ProblemsSolved[key], problemID)
	p.TotalProblemsSolved++
	return true
}

// HasDayCompleted reports whether the day is in the completed set.
func (p *ProgressData) HasDayCompleted(day int) bool {
	for _, d := range p.DaysCompleted {
		if d == day {
			return true
		}
	}
	return false
}

// HasAchievement reports whether the badge is already held.
func (p *ProgressData) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// LogActivity bumps the heatmap counter for a calendar date (YYYY-MM-DD) and
// tags it with what happened.
func (p *ProgressData) LogActivity(date, tag string) {
	if p.ActivityLog == nil {
		p.ActivityLog = make(map[string]DayActivity)
	}
	entry := p.ActivityLog[date]
	entry.Count++
	entry.Activities = append(entry.Activities, tag)
	p.ActivityLog[date] = entry
}

// ApprovedSkoolCount counts submissions that passed review.
func (p *ProgressData) ApprovedSkoolCount() int {
	n := 0
	for _, s := range p.SkoolSubmissions {
		if s.Status == StatusApproved {
			n++
		}
	}
	return n
}

// NormalizeURL strips surrounding whitespace and a single trailing slash so
// "https://x.com/p" and "https://x.com/p/" dedupe to the same submission.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	return strings.TrimSuffix(url, "/")
}

// HasPendingSkool reports whether a submission with the same normalized URL
// is already awaiting review.
func (p *ProgressData) HasPendingSkool(url string) bool {
	want := NormalizeURL(url)
	for _, s := range p.SkoolSubmissions {
		if s.Status == StatusPending && NormalizeURL(s.URL) == want {
			return true
		}
	}
	return false
}

// HasBonusProblem reports whether a bonus problem with the same normalized
// URL was already submitted.
func (p *ProgressData) HasBonusProblem(url string) bool {
	want := NormalizeURL(url)
	for _, b := range p.BonusProblems {
		if NormalizeURL(b.URL) == want {
			return true
		}
	}
	return false
}
