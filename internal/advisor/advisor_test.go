package advisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleResponse = `Here are some options.

Suggestion 1:
Start Time: 2024-11-12T14:00
End Time: 2024-11-12T14:30
Reasoning: Both participants are free on Tuesday afternoon.

**Suggestion 2:**
**Start Time:** 2024-11-13T09:00
**End Time:** 2024-11-13T09:30
**Reasoning:** Early slot before other meetings.

Suggestion 3:
Start Time: sometime next week
End Time: 2024-11-14T10:00
Reasoning: unparseable start, must be skipped
`

func TestParseSuggestions(t *testing.T) {
	got := ParseSuggestions(sampleResponse)
	require.Len(t, got, 2)

	assert.Equal(t, time.Date(2024, 11, 12, 14, 0, 0, 0, time.UTC), got[0].Start)
	assert.Equal(t, time.Date(2024, 11, 12, 14, 30, 0, 0, time.UTC), got[0].End)
	assert.Equal(t, "Both participants are free on Tuesday afternoon.", got[0].Reasoning)

	assert.Equal(t, time.Date(2024, 11, 13, 9, 0, 0, 0, time.UTC), got[1].Start)
	assert.Equal(t, "Early slot before other meetings.", got[1].Reasoning)
}

func TestParseSuggestionsWithoutBlocks(t *testing.T) {
	assert.Empty(t, ParseSuggestions("I cannot help with that."))
}

func TestBuildPrompt(t *testing.T) {
	start := time.Date(2024, 11, 11, 10, 0, 0, 0, time.UTC)
	_, prompt := BuildPrompt(Request{
		Title:     "Sync",
		Start:     start,
		End:       start.Add(45 * time.Minute),
		Organizer: "alice",
		Participants: []Participant{{
			Username:  "bob",
			Timezone:  "Europe/Moscow",
			Available: []Slot{{DayOfWeek: 0, Start: "06:00", End: "14:00"}},
			Blocked:   []Slot{{DayOfWeek: 0, Start: "10:00", End: "10:45"}},
		}},
	})

	assert.Contains(t, prompt, "Meeting Title: Sync")
	assert.Contains(t, prompt, "Current Start Time: 2024-11-11T10:00")
	assert.Contains(t, prompt, "Duration: 45 minutes")
	assert.Contains(t, prompt, "bob (Timezone: Europe/Moscow)")
	assert.Contains(t, prompt, "Day: 0, From: 06:00 to 14:00")
}

type stubGenerator struct {
	text  string
	calls int
}

func (g *stubGenerator) Generate(context.Context, string, string) (string, error) {
	g.calls++
	return g.text, nil
}

type mapCache struct {
	data map[string]string
}

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func TestCachedAdvisorCallsModelOnce(t *testing.T) {
	gen := &stubGenerator{text: sampleResponse}
	cache := &mapCache{data: map[string]string{}}
	a := NewCachedAdvisor(NewLLMAdvisor(gen), cache, time.Hour, zap.NewNop())

	req := Request{CacheKey: "m1:1700000000", Start: time.Now(), End: time.Now().Add(time.Hour)}

	first, err := a.Suggest(context.Background(), req)
	require.NoError(t, err)
	second, err := a.Suggest(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, first, second)
}

func TestLLMAdvisorRejectsEmptyAnswer(t *testing.T) {
	a := NewLLMAdvisor(&stubGenerator{text: "no idea"})
	_, err := a.Suggest(context.Background(), Request{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))
}
