// Package deck defines the generated sales deck content model and its HTML renderer.
//
// Decks arrive from the generation service as loosely shaped JSON. Decoding is
// lenient: a field with an unexpected shape is treated as absent, and a slide
// that is not an object becomes an empty slide that renders nothing.
package deck

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// SlideType tags a slide variant.
type SlideType string

const (
	TypeTitle    SlideType = "title"
	TypeProblem  SlideType = "problem"
	TypeSolution SlideType = "solution"
	TypeFeatures SlideType = "features"
	TypeUseCase  SlideType = "use_case"
	TypeROI      SlideType = "roi"
	TypeCTA      SlideType = "cta"
)

// Known reports whether t is one of the variants this package renders.
func (t SlideType) Known() bool {
	switch t {
	case TypeTitle, TypeProblem, TypeSolution, TypeFeatures, TypeUseCase, TypeROI, TypeCTA:
		return true
	}
	return false
}

// Feature is one entry of a features slide.
type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Metric is one entry of a roi slide.
type Metric struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Slide is the wire shape of every variant. Type decides which of the other
// fields are meaningful; the rest are ignored.
type Slide struct {
	Type        SlideType `json:"type"`
	Title       string    `json:"title,omitempty"`
	Subtitle    string    `json:"subtitle,omitempty"`
	Description string    `json:"description,omitempty"`
	Action      string    `json:"action,omitempty"`
	Points      []string  `json:"points,omitempty"`
	Features    []Feature `json:"features,omitempty"`
	Metrics     []Metric  `json:"metrics,omitempty"`
}

// Content is a generated deck: a title plus ordered slides.
type Content struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

// SlideCount returns the number of slides, known or not.
func (c Content) SlideCount() int {
	return len(c.Slides)
}

// DisplayTitle returns the deck title, or fallback when the title is empty.
func (c Content) DisplayTitle(fallback string) string {
	if c.Title != "" {
		return c.Title
	}
	return fallback
}

// UnmarshalJSON decodes a deck without failing on malformed slides.
func (c *Content) UnmarshalJSON(data []byte) error {
	*c = Content{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	c.Title = text(raw["title"])

	var slides []json.RawMessage
	if err := json.Unmarshal(raw["slides"], &slides); err != nil {
		return nil
	}
	c.Slides = make([]Slide, 0, len(slides))
	for _, s := range slides {
		var slide Slide
		_ = slide.UnmarshalJSON(s)
		c.Slides = append(c.Slides, slide)
	}
	return nil
}

// UnmarshalJSON decodes a slide field by field; wrong-typed fields are dropped.
func (s *Slide) UnmarshalJSON(data []byte) error {
	*s = Slide{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	s.Type = SlideType(text(raw["type"]))
	s.Title = text(raw["title"])
	s.Subtitle = text(raw["subtitle"])
	s.Description = text(raw["description"])
	s.Action = text(raw["action"])
	s.Points = textList(raw["points"])

	for _, obj := range objectList(raw["features"]) {
		s.Features = append(s.Features, Feature{
			Name:        text(obj["name"]),
			Description: text(obj["description"]),
		})
	}
	for _, obj := range objectList(raw["metrics"]) {
		s.Metrics = append(s.Metrics, Metric{
			Value: text(obj["value"]),
			Label: text(obj["label"]),
		})
	}
	return nil
}

// text renders a scalar JSON value as a string; anything else is "".
func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func textList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		// A bare string is accepted as a single entry.
		if single := text(raw); single != "" {
			return []string{single}
		}
		return nil
	}

	var out []string
	for _, item := range items {
		if v := text(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func objectList(raw json.RawMessage) []map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	var out []map[string]json.RawMessage
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			continue
		}
		out = append(out, obj)
	}
	return out
}
