package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"github.com/rs/zerolog/log"
)

// AdminHandler exposes the operator REST surface: question content and
// set management, pacing commands, lifeline toggles, leaderboard
// visibility, and the allow-list. Every route is gated by the
// pre-validated admin token in the X-Admin-Token header.
type AdminHandler struct {
	service *app.Service
	token   string
}

func NewAdminHandler(service *app.Service, token string) *AdminHandler {
	return &AdminHandler{service: service, token: token}
}

// Register mounts all admin routes on the mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/admin/questions", h.auth(h.uploadQuestions))
	mux.HandleFunc("GET /api/admin/questions/export", h.auth(h.exportQuestions))

	mux.HandleFunc("GET /api/admin/question_sets", h.auth(h.listSets))
	mux.HandleFunc("POST /api/admin/question_sets/save", h.auth(h.saveSet))
	mux.HandleFunc("POST /api/admin/question_sets/load", h.auth(h.loadSet))
	mux.HandleFunc("POST /api/admin/question_sets/apply", h.auth(h.applySet))
	mux.HandleFunc("DELETE /api/admin/question_sets/{name}", h.auth(h.deleteSet))

	mux.HandleFunc("POST /api/admin/start", h.auth(h.start))
	mux.HandleFunc("POST /api/admin/next", h.auth(h.next))
	mux.HandleFunc("POST /api/admin/pause", h.auth(h.pause))
	mux.HandleFunc("POST /api/admin/reveal", h.auth(h.reveal))
	mux.HandleFunc("POST /api/admin/reset", h.auth(h.reset))
	mux.HandleFunc("POST /api/admin/lifelines", h.auth(h.setLifelines))

	mux.HandleFunc("GET /api/admin/leaderboard", h.auth(h.leaderboard))
	mux.HandleFunc("POST /api/admin/leaderboard/show", h.auth(h.showLeaderboard))
	mux.HandleFunc("POST /api/admin/leaderboard/hide", h.auth(h.hideLeaderboard))

	mux.HandleFunc("GET /api/admin/allowed_emails", h.auth(h.getAllowedEmails))
	mux.HandleFunc("POST /api/admin/allowed_emails", h.auth(h.setAllowedEmails))

	mux.HandleFunc("GET /api/admin/events", h.auth(h.recentEvents))
}

func (h *AdminHandler) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Admin-Token") != h.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

type questionsRequest struct {
	Questions []domain.Question `json:"questions"`
}

type setSaveRequest struct {
	Name      string            `json:"name"`
	Questions []domain.Question `json:"questions"`
}

type setNameRequest struct {
	Name string `json:"name"`
}

type lifelinesRequest struct {
	Lifelines map[domain.Lifeline]bool `json:"lifelines"`
}

type allowedEmailsRequest struct {
	Emails []string `json:"emails"`
	Mode   string   `json:"mode"` // replace | append | remove
}

func (h *AdminHandler) uploadQuestions(w http.ResponseWriter, r *http.Request) {
	var req questionsRequest
	if !decode(w, r, &req) {
		return
	}
	count, err := h.service.UploadQuestions(req.Questions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": count})
}

func (h *AdminHandler) exportQuestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, questionsRequest{Questions: h.service.ExportQuestions()})
}

func (h *AdminHandler) listSets(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListSets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *AdminHandler) saveSet(w http.ResponseWriter, r *http.Request) {
	var req setSaveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, &domain.ValidationError{Detail: "set name required"})
		return
	}
	if err := h.service.SaveSet(r.Context(), req.Name, req.Questions); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *AdminHandler) loadSet(w http.ResponseWriter, r *http.Request) {
	var req setNameRequest
	if !decode(w, r, &req) {
		return
	}
	questions, err := h.service.LoadSet(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionsRequest{Questions: questions})
}

func (h *AdminHandler) applySet(w http.ResponseWriter, r *http.Request) {
	var req setNameRequest
	if !decode(w, r, &req) {
		return
	}
	count, err := h.service.ApplySet(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": count})
}

func (h *AdminHandler) deleteSet(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSet(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *AdminHandler) start(w http.ResponseWriter, _ *http.Request) {
	if err := h.service.Start(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *AdminHandler) next(w http.ResponseWriter, _ *http.Request) {
	res, err := h.service.Next()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) pause(w http.ResponseWriter, _ *http.Request) {
	paused, err := h.service.TogglePause()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "paused": paused})
}

func (h *AdminHandler) reveal(w http.ResponseWriter, _ *http.Request) {
	already, err := h.service.Reveal()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "alreadyRevealed": already})
}

func (h *AdminHandler) reset(w http.ResponseWriter, _ *http.Request) {
	h.service.Reset()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *AdminHandler) setLifelines(w http.ResponseWriter, r *http.Request) {
	var req lifelinesRequest
	if !decode(w, r, &req) {
		return
	}
	current := h.service.SetLifelines(req.Lifelines)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "lifelines": current})
}

func (h *AdminHandler) leaderboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Leaderboard())
}

func (h *AdminHandler) showLeaderboard(w http.ResponseWriter, _ *http.Request) {
	h.service.ShowLeaderboard()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *AdminHandler) hideLeaderboard(w http.ResponseWriter, _ *http.Request) {
	h.service.HideLeaderboard()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *AdminHandler) getAllowedEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := h.service.AllowedEmails(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"emails": emails, "count": len(emails)})
}

func (h *AdminHandler) setAllowedEmails(w http.ResponseWriter, r *http.Request) {
	var req allowedEmailsRequest
	if !decode(w, r, &req) {
		return
	}
	emails, err := h.service.UpdateAllowedEmails(r.Context(), req.Emails, req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"emails": emails, "count": len(emails)})
}

func (h *AdminHandler) recentEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"events": h.service.RecentEvents()})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, &domain.ValidationError{Detail: "malformed request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

func statusForError(err error) int {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSetNotFound), errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAllowed), errors.Is(err, domain.ErrLifelineDisabled):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrAlreadyAnswered),
		errors.Is(err, domain.ErrLifelineUsed),
		errors.Is(err, domain.ErrAlreadyRegistered):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
