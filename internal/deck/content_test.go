package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentUnmarshal_AllVariants(t *testing.T) {
	payload := `{
		"title": "Acme Proposal",
		"slides": [
			{"type": "title", "title": "Hello Acme", "subtitle": "Tagline"},
			{"type": "problem", "title": "The Challenge", "points": ["slow", "costly"]},
			{"type": "solution", "title": "Our Solution", "description": "Automate", "points": ["fast"]},
			{"type": "features", "title": "Key Features", "features": [{"name": "Sync", "description": "Realtime"}]},
			{"type": "use_case", "title": "Finance", "description": "Ledgers"},
			{"type": "roi", "title": "Value", "metrics": [{"label": "Time Saved", "value": "10h/week"}]},
			{"type": "cta", "title": "Next Steps", "description": "Talk to us", "action": "Book a demo"}
		]
	}`

	var c Content
	require.NoError(t, json.Unmarshal([]byte(payload), &c))

	assert.Equal(t, "Acme Proposal", c.Title)
	require.Len(t, c.Slides, 7)
	assert.Equal(t, TypeTitle, c.Slides[0].Type)
	assert.Equal(t, []string{"slow", "costly"}, c.Slides[1].Points)
	assert.Equal(t, "Automate", c.Slides[2].Description)
	assert.Equal(t, []Feature{{Name: "Sync", Description: "Realtime"}}, c.Slides[3].Features)
	assert.Equal(t, []Metric{{Value: "10h/week", Label: "Time Saved"}}, c.Slides[5].Metrics)
	assert.Equal(t, "Book a demo", c.Slides[6].Action)
}

func TestContentUnmarshal_Lenient(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		assert func(t *testing.T, c Content)
	}{
		{
			name:  "slides not an array",
			input: `{"title": "T", "slides": "nope"}`,
			assert: func(t *testing.T, c Content) {
				assert.Equal(t, "T", c.Title)
				assert.Empty(t, c.Slides)
			},
		},
		{
			name:  "slide not an object keeps its position",
			input: `{"slides": [42, {"type": "cta", "title": "Go"}]}`,
			assert: func(t *testing.T, c Content) {
				require.Len(t, c.Slides, 2)
				assert.Equal(t, SlideType(""), c.Slides[0].Type)
				assert.Equal(t, TypeCTA, c.Slides[1].Type)
			},
		},
		{
			name:  "numeric metric values become text",
			input: `{"slides": [{"type": "roi", "title": "ROI", "metrics": [{"value": 300, "label": "Efficiency"}, "junk"]}]}`,
			assert: func(t *testing.T, c Content) {
				require.Len(t, c.Slides[0].Metrics, 1)
				assert.Equal(t, "300", c.Slides[0].Metrics[0].Value)
			},
		},
		{
			name:  "points with mixed entries",
			input: `{"slides": [{"type": "problem", "title": "P", "points": ["a", {"x": 1}, null, "b"]}]}`,
			assert: func(t *testing.T, c Content) {
				assert.Equal(t, []string{"a", "b"}, c.Slides[0].Points)
			},
		},
		{
			name:  "points as a bare string",
			input: `{"slides": [{"type": "problem", "title": "P", "points": "only one"}]}`,
			assert: func(t *testing.T, c Content) {
				assert.Equal(t, []string{"only one"}, c.Slides[0].Points)
			},
		},
		{
			name:  "top level array",
			input: `[1, 2]`,
			assert: func(t *testing.T, c Content) {
				assert.Equal(t, Content{}, c)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Content
			require.NoError(t, json.Unmarshal([]byte(tt.input), &c))
			tt.assert(t, c)
		})
	}
}

func TestContent_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Deck", Content{Title: "Deck"}.DisplayTitle("Acme"))
	assert.Equal(t, "Acme", Content{}.DisplayTitle("Acme"))
}

func TestSlideVariant_Unknown(t *testing.T) {
	v, ok := Slide{Type: "timeline", Title: "Later"}.Variant()
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.False(t, SlideType("timeline").Known())
	assert.True(t, TypeROI.Known())
}

func TestSlideVariant_DoesNotAlias(t *testing.T) {
	s := Slide{Type: TypeProblem, Title: "P", Points: []string{"a"}}
	v, ok := s.Variant()
	require.True(t, ok)

	p := v.(ProblemSlide)
	p.Points[0] = "changed"
	assert.Equal(t, "a", s.Points[0])
}
