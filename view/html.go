package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/unrolled/render"

	"aoc-leaderboard/scoreboard"
)

//go:embed templates
var templates embed.FS

// TemplateLeaderboard is the name of the leaderboard page template.
const TemplateLeaderboard = "leaderboard"

// NewRenderer returns a renderer for the embedded page templates.
func NewRenderer() *render.Render {
	return render.New(render.Options{
		Directory: "templates",
		Layout:    "layout",
		FileSystem: &render.EmbedFileSystem{
			FS: templates,
		},
		Funcs: []template.FuncMap{
			{
				"starClass": starClass,
			},
		},
	})
}

// StaticHTML renders the leaderboard as a self-contained HTML page.
func StaticHTML(r *render.Render, lb *Leaderboard) (string, error) {
	var buf bytes.Buffer
	if err := r.HTML(&buf, http.StatusOK, TemplateLeaderboard, lb); err != nil {
		return "", fmt.Errorf("render %s: %w", lb.Slug, err)
	}
	return buf.String(), nil
}

func starClass(s scoreboard.Stars) string {
	switch s {
	case scoreboard.StarsBoth:
		return "star-both"
	case scoreboard.StarsFirst:
		return "star-first-only"
	default:
		return "star-none"
	}
}
