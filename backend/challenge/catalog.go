package challenge

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// TestCase is a single input/expected pair shown in the day view editor.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// Problem is one catalog problem. IDs are globally unique across days;
// the bundled data is responsible for upholding that.
type Problem struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Difficulty string     `json:"difficulty"` // Easy, Medium, Hard
	TestCases  []TestCase `json:"test_cases"`
}

// Day is one challenge day with its theme and problem set.
type Day struct {
	Day      int       `json:"day"`
	Theme    string    `json:"theme"`
	Problems []Problem `json:"problems"`
}

// AchievementDef describes a badge for UI rendering.
type AchievementDef struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type catalogFile struct {
	Days         []Day                     `json:"days"`
	Achievements map[string]AchievementDef `json:"achievements"`
	PointValues  map[string]int            `json:"point_values"`
	TotalDays    int                       `json:"total_days"`
}

// Catalog holds the challenge curriculum. It is built once at startup and
// never mutated afterwards, so it is safe to share across requests.
type Catalog struct {
	days         []Day
	byDay        map[int]*Day
	achievements map[string]AchievementDef
	pointValues  map[string]int
	totalDays    int
}

func defaultAchievements() map[string]AchievementDef {
	return map[string]AchievementDef{
		"first_problem":  {Name: "First Steps", Icon: "school"},
		"streak_7":       {Name: "Week Warrior", Icon: "local_fire_department"},
		"streak_14":      {Name: "Fortnight Focus", Icon: "whatshot"},
		"streak_28":      {Name: "Challenge Champion", Icon: "emoji_events"},
		"hard_problem":   {Name: "Hard Mode", Icon: "psychology"},
		"community_star": {Name: "Community Star", Icon: "groups"},
	}
}

func defaultPointValues() map[string]int {
	return map[string]int{
		"easy":                10,
		"medium":              20,
		"hard":                40,
		"streak_7":            50,
		"streak_14":           100,
		"streak_28":           250,
		"skool_post_approved": 30,
		"bonus_problem":       5,
	}
}

// LoadCatalog reads the challenge data file. A missing or unreadable file is
// not fatal: the service starts with an empty catalog and logs the problem
// once, because a broken curriculum should not take the whole platform down.
func LoadCatalog(path string, logger *log.Logger) *Catalog {
	cat := newCatalog(catalogFile{})

	raw, err := os.ReadFile(path)
	if err != nil {
		if logger != nil {
			logger.Printf("challenge catalog %q not loaded: %v (starting with empty catalog)", path, err)
		}
		return cat
	}

	var file catalogFile
	if err := json.Unmarshal(raw, &file); err != nil {
		if logger != nil {
			logger.Printf("challenge catalog %q is not valid JSON: %v (starting with empty catalog)", path, err)
		}
		return cat
	}

	return newCatalog(file)
}

func newCatalog(file catalogFile) *Catalog {
	cat := &Catalog{
		days:         file.Days,
		byDay:        make(map[int]*Day, len(file.Days)),
		achievements: file.Achievements,
		pointValues:  file.PointValues,
		totalDays:    file.TotalDays,
	}
	for i := range cat.days {
		d := &cat.days[i]
		if _, dup := cat.byDay[d.Day]; !dup {
			cat.byDay[d.Day] = d
		}
	}
	if len(cat.achievements) == 0 {
		cat.achievements = defaultAchievements()
	}
	if len(cat.pointValues) == 0 {
		cat.pointValues = defaultPointValues()
	}
	if cat.totalDays == 0 {
		cat.totalDays = ChallengeLength
	}
	return cat
}

// Days returns every configured day in order. The slice is a copy, so callers
// cannot reorder or replace entries in the shared catalog.
func (c *Catalog) Days() []Day {
	out := make([]Day, len(c.days))
	copy(out, c.days)
	return out
}

// DayProblems returns a copy of the problems for a day, or an empty slice when
// the day is not in the catalog (including day <= 0).
func (c *Catalog) DayProblems(day int) []Problem {
	d, ok := c.byDay[day]
	if !ok {
		return []Problem{}
	}
	out := make([]Problem, len(d.Problems))
	copy(out, d.Problems)
	return out
}

// DayTheme returns the configured theme, falling back to "Day N" for days the
// catalog does not know about.
func (c *Catalog) DayTheme(day int) string {
	if d, ok := c.byDay[day]; ok && d.Theme != "" {
		return d.Theme
	}
	return fmt.Sprintf("Day %d", day)
}

// Problem looks a problem up within a single day. Returns nil when either the
// day or the id does not exist.
func (c *Catalog) Problem(day int, problemID string) *Problem {
	d, ok := c.byDay[day]
	if !ok {
		return nil
	}
	for i := range d.Problems {
		if d.Problems[i].ID == problemID {
			return &d.Problems[i]
		}
	}
	return nil
}

// ProblemByID scans all days for a problem id and returns the first match.
func (c *Catalog) ProblemByID(problemID string) *Problem {
	for i := range c.days {
		for j := range c.days[i].Problems {
			if c.days[i].Problems[j].ID == problemID {
				return &c.days[i].Problems[j]
			}
		}
	}
	return nil
}

// AchievementsConfig returns badge definitions for UI rendering.
func (c *Catalog) AchievementsConfig() map[string]AchievementDef {
	return c.achievements
}

// PointValues returns the point value table.
func (c *Catalog) PointValues() map[string]int {
	return c.pointValues
}

// TotalDays returns the configured challenge length.
func (c *Catalog) TotalDays() int {
	return c.totalDays
}

func (c *Catalog) pointValue(key string, fallback int) int {
	if v, ok := c.pointValues[key]; ok {
		return v
	}
	return fallback
}
