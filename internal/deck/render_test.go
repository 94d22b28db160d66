package deck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_EachVariant(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name     string
		slide    Slide
		contains []string
	}{
		{
			name:     "title",
			slide:    Slide{Type: TypeTitle, Title: "Hello", Subtitle: "World"},
			contains: []string{`slide-title`, "<h2>Hello</h2>", "World"},
		},
		{
			name:     "problem bullets",
			slide:    Slide{Type: TypeProblem, Title: "Pain", Points: []string{"one", "two"}},
			contains: []string{"<h3>Pain</h3>", "&bull;</span> one", "&bull;</span> two"},
		},
		{
			name:     "solution checks",
			slide:    Slide{Type: TypeSolution, Title: "Fix", Description: "We fix it", Points: []string{"fast"}},
			contains: []string{"We fix it", "&#10003;</span> fast"},
		},
		{
			name:     "features",
			slide:    Slide{Type: TypeFeatures, Title: "Features", Features: []Feature{{Name: "Sync", Description: "Live"}}},
			contains: []string{"<h4>Sync</h4>", "<p>Live</p>"},
		},
		{
			name:     "use case",
			slide:    Slide{Type: TypeUseCase, Title: "Banking", Description: "Ledgers"},
			contains: []string{"slide-use_case", "Ledgers"},
		},
		{
			name:     "roi",
			slide:    Slide{Type: TypeROI, Title: "Value", Metrics: []Metric{{Value: "300%", Label: "Efficiency"}}},
			contains: []string{`metric-value">300%`, `metric-label">Efficiency`},
		},
		{
			name:     "cta",
			slide:    Slide{Type: TypeCTA, Title: "Next", Description: "Call", Action: "Book a demo"},
			contains: []string{`<div class="action">Book a demo</div>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.RenderSlide(0, tt.slide)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, string(out), want)
			}
		})
	}
}

func TestRender_ROIWithoutMetrics(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render(Content{Slides: []Slide{{Type: TypeROI, Title: "Value Proposition"}}})
	require.NoError(t, err)

	assert.Contains(t, string(out), "<h3>Value Proposition</h3>")
	assert.NotContains(t, string(out), "metric")
}

func TestRender_OptionalFieldsAbsent(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render(Content{Slides: []Slide{
		{Type: TypeProblem, Title: "P"},
		{Type: TypeSolution, Title: "S"},
		{Type: TypeFeatures, Title: "F"},
	}})
	require.NoError(t, err)

	html := string(out)
	assert.NotContains(t, html, "<ul")
	assert.NotContains(t, html, "description")
	assert.NotContains(t, html, `class="features"`)
	assert.Equal(t, 3, strings.Count(html, "<section"))
}

func TestRender_UnknownVariantSkipped(t *testing.T) {
	r := NewRenderer()

	c := Content{Slides: []Slide{
		{Type: TypeTitle, Title: "First", Subtitle: "Sub"},
		{Type: "timeline", Title: "Ignored"},
		{},
		{Type: TypeCTA, Title: "Last", Description: "D", Action: "Go"},
	}}

	out, err := r.Render(c)
	require.NoError(t, err)

	html := string(out)
	assert.NotContains(t, html, "Ignored")
	assert.Equal(t, 2, strings.Count(html, "<section"))
	assert.Contains(t, html, `data-slide="0"`)
	assert.Contains(t, html, `data-slide="3"`)
	assert.Contains(t, html, "Last")
}

func TestRender_EscapesContent(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render(Content{Slides: []Slide{{Type: TypeTitle, Title: "<script>x</script>"}}})
	require.NoError(t, err)

	assert.NotContains(t, string(out), "<script>")
	assert.Contains(t, string(out), "&lt;script&gt;")
}

func TestRender_IdempotentAndPure(t *testing.T) {
	r := NewRenderer()
	c := Content{Title: "T", Slides: []Slide{
		{Type: TypeProblem, Title: "P", Points: []string{"a", "b"}},
		{Type: TypeROI, Title: "R", Metrics: []Metric{{Value: "1", Label: "x"}}},
	}}
	before := Content{Title: c.Title, Slides: append([]Slide(nil), c.Slides...)}

	first, err := r.Render(c)
	require.NoError(t, err)
	second, err := r.Render(c)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, c)
}

func TestRender_EmptyDeck(t *testing.T) {
	out, err := NewRenderer().Render(Content{})
	require.NoError(t, err)
	assert.Empty(t, string(out))
}
