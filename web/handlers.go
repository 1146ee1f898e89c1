package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/render"

	"aoc-leaderboard/config"
	"aoc-leaderboard/view"
)

// StandingsSource provides the standings of configured leaderboards.
type StandingsSource interface {
	Standings(ctx context.Context, slug string) (*view.Leaderboard, error)
}

const (
	notFoundBody      = "404 Not Found"
	internalErrorBody = "500 Internal Server Error"
)

// leaderboardHandler serves /{slug} as an HTML page and /{slug}.json as the
// underlying view model. Slugs never contain a dot.
func leaderboardHandler(standings StandingsSource, rnd *render.Render, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, asJSON := strings.CutSuffix(chi.URLParam(r, "slug"), ".json")

		lb, err := standings.Standings(r.Context(), slug)
		if errors.Is(err, config.ErrUnknownLeaderboard) {
			rnd.Text(w, http.StatusNotFound, notFoundBody)
			return
		}
		if err != nil {
			logger.Error("failed to build leaderboard", "slug", slug, "error", err,
				"request_id", middleware.GetReqID(r.Context()))
			rnd.Text(w, http.StatusInternalServerError, internalErrorBody)
			return
		}

		if asJSON {
			rnd.JSON(w, http.StatusOK, lb)
			return
		}
		rnd.HTML(w, http.StatusOK, view.TemplateLeaderboard, lb)
	}
}

func healthHandler(rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rnd.Text(w, http.StatusOK, "ok")
	}
}

func notFoundHandler(rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rnd.Text(w, http.StatusNotFound, notFoundBody)
	}
}
