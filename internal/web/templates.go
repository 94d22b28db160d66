package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/capitalize-ai/sales-deck/internal/app"
	"github.com/capitalize-ai/sales-deck/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

type assetOption struct {
	Value model.AssetType
	Label string
}

var assetOptions = []assetOption{
	{Value: model.AssetProductDescription, Label: "Product Description"},
	{Value: model.AssetUseCase, Label: "Industry Use Case"},
	{Value: model.AssetGeneral, Label: "General Asset"},
}

var tabLabels = map[app.Tab]string{
	app.TabAssets:  "Knowledge Base",
	app.TabClients: "Clients",
	app.TabLeads:   "Leads",
	app.TabDecks:   "Sales Decks",
}

var funcs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		return t.Local().Format("Jan 2, 2006")
	},
	"assetLabel": func(t model.AssetType) string {
		for _, o := range assetOptions {
			if o.Value == t {
				return o.Label
			}
		}
		return string(t)
	},
	"tabLabel": func(t app.Tab) string {
		return tabLabels[t]
	},
	"truncate": func(s string, n int) string {
		if utf8.RuneCountInString(s) <= n {
			return s
		}
		return string([]rune(s)[:n]) + "..."
	},
}

// pageData is the root value of every page template.
type pageData struct {
	Title      string
	Notices    []app.Notice
	View       app.View
	Tabs       []app.Tab
	AssetTypes []assetOption
	DeckHTML   template.HTML
}

type pages map[string]*template.Template

func loadPages() (pages, error) {
	p := pages{}
	for _, name := range []string{"mount", "landing", "dashboard"} {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p[name] = t
	}
	return p, nil
}

// render executes into a buffer first so a template error never leaves a
// half-written page.
func (p pages) render(w http.ResponseWriter, status int, name string, data pageData) error {
	var buf bytes.Buffer
	if err := p[name].ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
