package main

import (
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"

	"github.com/dustin/go-humanize"

	"github.com/miki-714/portfolio/internal/content"
)

var (
	//go:embed content.yaml
	defaultContent []byte

	//go:embed templates/*.html
	templateFS embed.FS

	//go:embed static
	staticFS embed.FS
)

func loadSite(path string) (*content.Site, error) {
	return content.Load(path, defaultContent)
}

func staticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Motion is an animation descriptor handed to the client-side animation
// script as-is.
type Motion struct {
	Initial    map[string]any `json:"initial,omitempty"`
	Animate    map[string]any `json:"animate,omitempty"`
	Exit       map[string]any `json:"exit,omitempty"`
	Transition map[string]any `json:"transition,omitempty"`
}

var motions = map[string]Motion{
	"fade-up": {
		Initial:    map[string]any{"opacity": 0, "y": 50},
		Animate:    map[string]any{"opacity": 1, "y": 0},
		Transition: map[string]any{"duration": 0.8},
	},
	"slide-left": {
		Initial:    map[string]any{"opacity": 0, "x": -50},
		Animate:    map[string]any{"opacity": 1, "x": 0},
		Transition: map[string]any{"duration": 0.8, "type": "spring"},
	},
	"slide-right": {
		Initial:    map[string]any{"opacity": 0, "x": 50},
		Animate:    map[string]any{"opacity": 1, "x": 0},
		Transition: map[string]any{"duration": 0.8, "type": "spring", "delay": 0.2},
	},
	"fade-in": {
		Initial:    map[string]any{"opacity": 0},
		Animate:    map[string]any{"opacity": 1},
		Transition: map[string]any{"duration": 0.8, "delay": 0.3},
	},
	"menu": {
		Initial:    map[string]any{"x": "100%"},
		Animate:    map[string]any{"x": 0},
		Exit:       map[string]any{"x": "100%"},
		Transition: map[string]any{"type": "spring", "damping": 25},
	},
}

// motionJSON renders a named preset, delayed by index*stagger seconds.
func motionJSON(name string, index int, stagger float64) string {
	m, ok := motions[name]
	if !ok {
		return "{}"
	}
	if index > 0 && stagger > 0 {
		t := make(map[string]any, len(m.Transition)+1)
		for k, v := range m.Transition {
			t[k] = v
		}
		t["delay"] = float64(index) * stagger
		m.Transition = t
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

var templateFuncs = template.FuncMap{
	"motion": motionJSON,
	"ago":    humanize.Time,
	"comma":  humanize.Comma,
	"bytes": func(n int64) string {
		if n < 0 {
			return "0 B"
		}
		return humanize.Bytes(uint64(n))
	},
	"add": func(a, b int) int { return a + b },
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}
