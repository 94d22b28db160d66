package deck

import (
	"bytes"
	"fmt"
	"html/template"
)

const slideTemplates = `
{{define "slide"}}<section class="slide slide-{{.Kind}}" data-slide="{{.Index}}">{{.Body}}</section>{{end}}

{{define "slide-title"}}<div class="slide-hero">
<h2>{{.Title}}</h2>
<p class="subtitle">{{.Subtitle}}</p>
</div>{{end}}

{{define "slide-problem"}}<h3>{{.Title}}</h3>
{{- with .Points}}
<ul class="points">{{range .}}
<li><span class="marker">&bull;</span> {{.}}</li>{{end}}
</ul>{{end}}{{end}}

{{define "slide-solution"}}<h3>{{.Title}}</h3>
{{- with .Description}}
<p class="description">{{.}}</p>{{end}}
{{- with .Points}}
<ul class="points checked">{{range .}}
<li><span class="marker">&#10003;</span> {{.}}</li>{{end}}
</ul>{{end}}{{end}}

{{define "slide-features"}}<h3>{{.Title}}</h3>
{{- with .Features}}
<div class="features">{{range .}}
<div class="feature"><h4>{{.Name}}</h4><p>{{.Description}}</p></div>{{end}}
</div>{{end}}{{end}}

{{define "slide-use-case"}}<h3>{{.Title}}</h3>
<p class="description">{{.Description}}</p>{{end}}

{{define "slide-roi"}}<h3>{{.Title}}</h3>
{{- with .Metrics}}
<div class="metrics">{{range .}}
<div class="metric"><p class="metric-value">{{.Value}}</p><p class="metric-label">{{.Label}}</p></div>{{end}}
</div>{{end}}{{end}}

{{define "slide-cta"}}<div class="slide-cta-body">
<h3>{{.Title}}</h3>
<p class="description">{{.Description}}</p>
<div class="action">{{.Action}}</div>
</div>{{end}}
`

// Renderer turns deck content into HTML. It holds no mutable state and is safe
// for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the slide templates.
func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("deck").Parse(slideTemplates)),
	}
}

type slideFrame struct {
	Kind  SlideType
	Index int
	Body  template.HTML
}

// Render renders every known slide in order. Unknown variants produce no
// output and do not stop later slides from rendering.
func (r *Renderer) Render(c Content) (template.HTML, error) {
	var out bytes.Buffer
	for i, s := range c.Slides {
		v, ok := s.Variant()
		if !ok {
			continue
		}
		if err := r.renderFrame(&out, i, v); err != nil {
			return "", err
		}
	}
	return template.HTML(out.String()), nil
}

// RenderSlide renders one slide; unknown variants render as "".
func (r *Renderer) RenderSlide(index int, s Slide) (template.HTML, error) {
	v, ok := s.Variant()
	if !ok {
		return "", nil
	}
	var out bytes.Buffer
	if err := r.renderFrame(&out, index, v); err != nil {
		return "", err
	}
	return template.HTML(out.String()), nil
}

func (r *Renderer) renderFrame(out *bytes.Buffer, index int, v Renderable) error {
	var body bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&body, v.templateName(), v); err != nil {
		return fmt.Errorf("render %s slide %d: %w", v.Kind(), index, err)
	}
	return r.tmpl.ExecuteTemplate(out, "slide", slideFrame{
		Kind:  v.Kind(),
		Index: index,
		Body:  template.HTML(body.String()),
	})
}
