package render

import (
	"bytes"
	"fmt"
	"html/template"

	"chatwidget/types"
)

// Action is one entry of the context menu a panel item opens on activation.
type Action struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
}

const (
	ActionHighlight = "highlight"
	ActionOpen      = "open"
)

// Actions is the context action set for a source: highlighting is always
// available, opening only when the source has a URI.
func Actions(s types.Source) []Action {
	actions := []Action{{Name: ActionHighlight, Label: "Highlight in chat"}}
	if s.URI != "" {
		actions = append(actions, Action{Name: ActionOpen, Label: "Open source", Href: DeepLink(s)})
	}
	return actions
}

// PanelView is everything the sources panel shows.
type PanelView struct {
	State       string
	Phase       string
	Sources     []types.Source
	Highlighted int
	NewSources  bool
}

type panelItem struct {
	types.Source
	Index       int
	Link        string
	Linkable    bool
	Highlighted bool
	Label       string
}

var panelTmpl = template.Must(template.New("panel").Parse(`<aside class="sources-panel" data-state="{{.State}}"{{if .Phase}} data-phase="{{.Phase}}"{{end}} aria-label="Sources">
<header class="sources-header"><h3>Sources</h3><span class="sources-count">{{len .Items}}</span>{{if .NewSources}}<span class="sources-badge" role="status">New sources</span>{{end}}</header>
{{if .Items}}<ol class="sources-list">
{{range .Items}}<li class="source-item{{if .Highlighted}} highlighted{{end}}" id="source-{{.Number}}" data-source-index="{{.Index}}" data-source="{{.URI}}" tabindex="0" role="button" aria-label="{{.Label}}">
<span class="source-number">{{.Number}}.</span> <span class="source-title">{{.Title}}</span>
{{if .Snippet}}<p class="source-snippet">{{.Snippet}}</p>
{{end}}{{if .Linkable}}<a class="source-link" href="{{.Link}}" target="_blank" rel="noopener noreferrer">{{.URI}}</a>{{else if .URI}}<span class="source-uri">{{.URI}}</span>{{else}}<span class="source-nolink">No link available</span>{{end}}
</li>
{{end}}</ol>{{else}}<p class="sources-empty">No sources yet</p>{{end}}
</aside>`))

var menuTmpl = template.Must(template.New("menu").Parse(`<div class="source-actions" role="menu" data-source-index="{{.Index}}">{{range .Actions}}{{if .Href}}<a class="source-action" role="menuitem" data-action="{{.Name}}" href="{{.Href}}" target="_blank" rel="noopener noreferrer">{{.Label}}</a>{{else}}<button type="button" class="source-action" role="menuitem" data-action="{{.Name}}">{{.Label}}</button>{{end}}{{end}}</div>`))

// Panel renders the sources panel, one item per ledger entry.
func Panel(v PanelView) (string, error) {
	items := make([]panelItem, len(v.Sources))
	for i, s := range v.Sources {
		items[i] = panelItem{
			Source:      s,
			Index:       i,
			Link:        DeepLink(s),
			Linkable:    Linkable(s.URI),
			Highlighted: v.Highlighted > 0 && s.Number == v.Highlighted,
			Label:       fmt.Sprintf("Source %d: %s", s.Number, s.Title),
		}
	}
	var buf bytes.Buffer
	err := panelTmpl.Execute(&buf, struct {
		PanelView
		Items []panelItem
	}{v, items})
	if err != nil {
		return "", fmt.Errorf("render panel: %w", err)
	}
	return buf.String(), nil
}

// ActionMenu renders the context actions of the source at index.
func ActionMenu(index int, actions []Action) (string, error) {
	var buf bytes.Buffer
	if err := menuTmpl.Execute(&buf, struct {
		Index   int
		Actions []Action
	}{index, actions}); err != nil {
		return "", fmt.Errorf("render actions: %w", err)
	}
	return buf.String(), nil
}
