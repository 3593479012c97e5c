package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ZyrusXD/BMA-Voice/internal/civic"
	"github.com/ZyrusXD/BMA-Voice/internal/store"
)

type CivicHandler struct {
	svc    *civic.Service
	polls  *store.PollStore
	logger *slog.Logger
}

func NewCivicHandler(svc *civic.Service, polls *store.PollStore, logger *slog.Logger) *CivicHandler {
	return &CivicHandler{svc: svc, polls: polls, logger: logger}
}

func (h *CivicHandler) fail(w http.ResponseWriter, op string, err error) {
	status := civicStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(op, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

type postRequest struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	PolicyAspect string   `json:"policy_aspect"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Tags         []string `json:"tags"`
}

func (h *CivicHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing "+UserHeader)
		return
	}
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	p, err := h.svc.CreatePost(civic.NewPost{
		OwnerID:      actor,
		Title:        req.Title,
		Content:      req.Content,
		PolicyAspect: req.PolicyAspect,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Tags:         req.Tags,
	})
	if err != nil {
		h.fail(w, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CivicHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	thread, err := h.svc.Thread(id)
	if err != nil {
		h.fail(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

func (h *CivicHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing "+UserHeader)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.DeletePost(actor, id); err != nil {
		h.fail(w, "delete post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CivicHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing "+UserHeader)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.svc.ChangeStatus(actor, id, req.Status); err != nil {
		h.fail(w, "change status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type commentRequest struct {
	PostID  *int64 `json:"post_id"`
	PollID  *int64 `json:"poll_id"`
	Content string `json:"content"`
}

func (h *CivicHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing "+UserHeader)
		return
	}
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c, err := h.svc.CreateComment(actor, req.PostID, req.PollID, req.Content)
	if err != nil {
		h.fail(w, "create comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CivicHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing "+UserHeader)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.DeleteComment(actor, id); err != nil {
		h.fail(w, "delete comment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CivicHandler) React(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing "+UserHeader)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := h.svc.React(actor, id, req.Type)
	if err != nil {
		h.fail(w, "react", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CivicHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.polls.GetByID(id)
	if err != nil {
		h.logger.Error("get poll", "poll_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "poll not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CivicHandler) Vote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing "+UserHeader)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		ChoiceID int64 `json:"choice_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	v, err := h.svc.CastVote(actor, id, req.ChoiceID)
	if err != nil {
		h.fail(w, "cast vote", err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}
