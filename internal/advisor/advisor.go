// Package advisor запрашивает у внешней модели варианты переноса встречи.
// Ответ модели - только подсказка: каждый вариант потом перепроверяется сервисом.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SuggestionLayout - формат времени в промпте и ответе модели (UTC)
const SuggestionLayout = "2006-01-02T15:04"

// Slot - интервал доступности в UTC
type Slot struct {
	DayOfWeek int
	Start     string // HH:MM
	End       string
}

type Participant struct {
	Username  string
	Timezone  string
	Available []Slot
	Blocked   []Slot
}

type Request struct {
	// CacheKey меняется при любом изменении встречи
	CacheKey     string
	Title        string
	Start        time.Time
	End          time.Time
	Organizer    string
	Participants []Participant
}

type Suggestion struct {
	Start     time.Time `json:"new_start_time"`
	End       time.Time `json:"new_end_time"`
	Reasoning string    `json:"reasoning"`
}

type Advisor interface {
	Suggest(ctx context.Context, req Request) ([]Suggestion, error)
}

// TextGenerator - модель, которая по системной инструкции и промпту возвращает текст
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// LLMAdvisor строит промпт, вызывает модель и разбирает ответ
type LLMAdvisor struct {
	gen TextGenerator
}

func NewLLMAdvisor(gen TextGenerator) *LLMAdvisor {
	return &LLMAdvisor{gen: gen}
}

func (a *LLMAdvisor) Suggest(ctx context.Context, req Request) ([]Suggestion, error) {
	system, prompt := BuildPrompt(req)

	text, err := a.gen.Generate(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}

	suggestions := ParseSuggestions(text)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("advisor returned no usable suggestions")
	}
	return suggestions, nil
}

const systemPrompt = `You are a scheduling assistant. Analyze the participants' availability and suggest optimal meeting times.
All times are UTC. Days of week: 0 = Monday ... 6 = Sunday.
Keep the meeting duration unchanged and avoid every blocked slot.
Format each suggestion exactly as:
Suggestion {number}:
Start Time: YYYY-MM-DDTHH:MM
End Time: YYYY-MM-DDTHH:MM
Reasoning: {brief explanation}`

// BuildPrompt возвращает системную инструкцию и промпт
func BuildPrompt(req Request) (string, string) {
	var b strings.Builder

	b.WriteString("Please suggest rescheduling times for this meeting:\n")
	fmt.Fprintf(&b, "Meeting Title: %s\n", req.Title)
	fmt.Fprintf(&b, "Current Start Time: %s\n", req.Start.UTC().Format(SuggestionLayout))
	fmt.Fprintf(&b, "Current End Time: %s\n", req.End.UTC().Format(SuggestionLayout))
	fmt.Fprintf(&b, "Duration: %d minutes\n", int(req.End.Sub(req.Start).Minutes()))
	fmt.Fprintf(&b, "Organizer: %s\n\nParticipant Availability:\n", req.Organizer)

	for _, p := range req.Participants {
		fmt.Fprintf(&b, "\n%s (Timezone: %s)\n", p.Username, p.Timezone)
		b.WriteString("Available Slots:\n")
		for _, s := range p.Available {
			fmt.Fprintf(&b, "    Day: %d, From: %s to %s\n", s.DayOfWeek, s.Start, s.End)
		}
		b.WriteString("Blocked Slots (existing meetings):\n")
		for _, s := range p.Blocked {
			fmt.Fprintf(&b, "    Day: %d, From: %s to %s\n", s.DayOfWeek, s.Start, s.End)
		}
	}

	return systemPrompt, b.String()
}

// ParseSuggestions разбирает блоки "Suggestion N:". Блоки без корректного времени пропускаются.
func ParseSuggestions(text string) []Suggestion {
	blocks := strings.Split(text, "Suggestion")
	if len(blocks) < 2 {
		return nil
	}

	var out []Suggestion
	for _, block := range blocks[1:] {
		var (
			s                Suggestion
			hasStart, hasEnd bool
		)

		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(strings.Trim(line, "*"))
			switch {
			case strings.HasPrefix(line, "Start Time:"):
				t, err := parseTime(strings.TrimPrefix(line, "Start Time:"))
				if err == nil {
					s.Start, hasStart = t, true
				}
			case strings.HasPrefix(line, "End Time:"):
				t, err := parseTime(strings.TrimPrefix(line, "End Time:"))
				if err == nil {
					s.End, hasEnd = t, true
				}
			case strings.HasPrefix(line, "Reasoning:"):
				s.Reasoning = strings.TrimSpace(strings.TrimPrefix(line, "Reasoning:"))
			}
		}

		if hasStart && hasEnd && s.Start.Before(s.End) {
			out = append(out, s)
		}
	}
	return out
}

func parseTime(value string) (time.Time, error) {
	value = strings.Trim(strings.TrimSpace(value), "*` ")
	for _, layout := range []string{SuggestionLayout, "2006-01-02T15:04:05", time.RFC3339, "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}
