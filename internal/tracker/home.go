package tracker

import (
	"strings"

	"github.com/starford/cradle/internal/models"
)

// dailyQuestions seed the diary prompt; {name} is replaced with the child's name.
var dailyQuestions = []string{
	"What did {name} want to do with mom and dad today?",
	"Which friends will visit {name} in dreams tonight?",
	"When was {name} happiest today?",
	"If you drew {name}'s day in one sentence, what would it look like?",
	"What words of encouragement would you most like {name} to hear today?",
	"What color was the world {name} saw today?",
}

// Home is the landing summary for one day.
type Home struct {
	Date           models.Date `json:"date"`
	Name           string      `json:"name"`
	DaysSinceBirth int         `json:"days_since_birth"`
	Question       string      `json:"question"`
}

// Home returns the child's age in days and the diary question for date.
// The question is stable for a given date.
func (s *Service) Home(date models.Date) (Home, error) {
	p, err := s.profile.Get()
	if err != nil {
		return Home{}, err
	}
	return Home{
		Date:           date,
		Name:           p.Name,
		DaysSinceBirth: date.DaysSince(p.BirthDate),
		Question:       DailyQuestion(date, p.Name),
	}, nil
}

// DailyQuestion picks the diary question for date.
func DailyQuestion(date models.Date, name string) string {
	var h int32
	for _, c := range date.String() {
		h = int32(c) + (h << 5) - h
	}
	idx := int(h) % len(dailyQuestions)
	if idx < 0 {
		idx = -idx
	}
	return strings.ReplaceAll(dailyQuestions[idx], "{name}", name)
}
