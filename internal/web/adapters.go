package web

import (
	"github.com/capitalize-ai/sales-deck/internal/bootstrap"
)

// postedLocation is the landing page URL as reported by the mount form. The
// browser only ever sends the fragment; ReplaceState is honoured by
// answering at the clean path.
type postedLocation struct {
	fragment string
	replaced string
}

func (l *postedLocation) Fragment() string { return l.fragment }

func (l *postedLocation) ReplaceState(path string) { l.replaced = path }

// redirectNavigator records the view a transition asked for so the handler
// can answer with a redirect.
type redirectNavigator struct {
	target bootstrap.View
}

func (n *redirectNavigator) Navigate(v bootstrap.View) { n.target = v }
