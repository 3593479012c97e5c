package handler

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/ZyrusXD/BMA-Voice/internal/events"
	"github.com/ZyrusXD/BMA-Voice/internal/model"
	"github.com/ZyrusXD/BMA-Voice/internal/store"
)

type DistrictHandler struct {
	resolver events.DistrictResolver
	posts    *store.PostStore
	logger   *slog.Logger
}

func NewDistrictHandler(resolver events.DistrictResolver, posts *store.PostStore, logger *slog.Logger) *DistrictHandler {
	return &DistrictHandler{resolver: resolver, posts: posts, logger: logger}
}

func parseCoord(s string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.Abs(v) > limit {
		return 0, false
	}
	return v, true
}

// Resolve answers GET /districts/resolve?lat=..&lon=..
func (h *DistrictHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, okLat := parseCoord(q.Get("lat"), 90)
	lon, okLon := parseCoord(q.Get("lon"), 180)
	if !okLat || !okLon {
		writeError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lat":      lat,
		"lon":      lon,
		"district": h.resolver.Resolve(lat, lon),
	})
}

func (h *DistrictHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.posts.DistrictRanking()
	if err != nil {
		h.logger.Error("district ranking", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ranking == nil {
		ranking = []model.DistrictRanking{}
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (h *DistrictHandler) Posts(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	posts, err := h.posts.ListByDistrict(name)
	if err != nil {
		h.logger.Error("list district posts", "district", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}
