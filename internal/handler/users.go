package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
)

// ListUsers возвращает пользователей выбранного хранилища с признаком блокировки.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	users, err := h.service.ListUsers(r.Context(), storeKey(r), q.Get("q"), model.UserSort(q.Get("sort")))
	if err != nil {
		h.writeError(w, "list users", err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// BanUser блокирует пользователя.
func (h *Handler) BanUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.BanUser(r.Context(), chi.URLParam(r, "uid"), storeKey(r)); err != nil {
		h.writeError(w, "ban user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnbanUser снимает блокировку.
func (h *Handler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.UnbanUser(r.Context(), chi.URLParam(r, "uid"), storeKey(r)); err != nil {
		h.writeError(w, "unban user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
