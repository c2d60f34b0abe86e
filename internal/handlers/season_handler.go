package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"f1fantasy/internal/service"
)

// SeasonHandler shows the imported race calendar and driver line-up
type SeasonHandler struct {
	seasonService *service.SeasonService
	renderer      *Renderer
}

func NewSeasonHandler(seasonService *service.SeasonService, renderer *Renderer) *SeasonHandler {
	return &SeasonHandler{seasonService: seasonService, renderer: renderer}
}

// Latest redirects to the most recent imported season
func (h *SeasonHandler) Latest(w http.ResponseWriter, r *http.Request) {
	latest, err := h.seasonService.LatestSeason(r.Context())
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	if latest == 0 {
		h.renderer.renderError(w, r, http.StatusNotFound, "No season data has been imported yet")
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/seasons/%d", latest), http.StatusSeeOther)
}

// Show renders one season
func (h *SeasonHandler) Show(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("season"))
	if err != nil || year < 1950 || year > 2100 {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}

	latest, err := h.seasonService.LatestSeason(r.Context())
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	season, err := h.seasonService.Season(r.Context(), year)
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}

	data := SeasonViewData{
		Page:         h.renderer.page(w, r, fmt.Sprintf("%d season", year)),
		Season:       season.Year,
		LatestSeason: latest,
		Races:        season.Races,
		Drivers:      season.Drivers,
	}
	h.renderer.render(w, http.StatusOK, "season.tmpl", data)
}
