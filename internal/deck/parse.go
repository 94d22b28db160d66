package deck

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotObject is returned by Parse when the payload is not a JSON object.
var ErrNotObject = errors.New("deck content is not a JSON object")

// StripFences removes a surrounding Markdown code fence, if any.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line (it may carry a language tag).
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimRight(s, " \t\r\n")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Parse decodes model output into deck content.
func Parse(raw string) (Content, error) {
	body := StripFences(raw)
	if !strings.HasPrefix(body, "{") {
		return Content{}, ErrNotObject
	}

	var c Content
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return Content{}, fmt.Errorf("decode deck content: %w", err)
	}
	return c, nil
}

// Fallback is the deck stored when the model output cannot be used.
func Fallback(clientName string) Content {
	return Content{
		Title: "Sales Presentation for " + clientName,
		Slides: []Slide{
			{
				Type:     TypeTitle,
				Title:    "Partnership Proposal for " + clientName,
				Subtitle: "Transform Your Business",
			},
		},
	}
}
