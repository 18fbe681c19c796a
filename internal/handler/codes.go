package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
)

type createCodeRequest struct {
	Code string `json:"code"`
	model.CodeFields
}

type createBatchRequest struct {
	Prefix   string `json:"prefix"`
	Quantity int    `json:"quantity"`
	model.CodeFields
}

type deleteFilteredResponse struct {
	Deleted int `json:"deleted"`
}

// codeFilter собирает фильтр списка кодов из параметров q, expired и maxed.
func codeFilter(r *http.Request) model.CodeFilter {
	q := r.URL.Query()
	expired, _ := strconv.ParseBool(q.Get("expired"))
	maxed, _ := strconv.ParseBool(q.Get("maxed"))
	return model.CodeFilter{
		Text:        q.Get("q"),
		ExpiredOnly: expired,
		MaxedOnly:   maxed,
	}
}

// CreateCode создаёт подарочный код в обоих хранилищах.
func (h *Handler) CreateCode(w http.ResponseWriter, r *http.Request) {
	var req createCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, "create code", err)
		return
	}

	code, err := h.service.CreateCode(r.Context(), req.Code, req.CodeFields)
	if err != nil {
		h.writeError(w, "create code", err)
		return
	}

	writeJSON(w, http.StatusCreated, code)
}

// CreateBatch создаёт пакет кодов с общим префиксом.
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, "create batch", err)
		return
	}

	res, err := h.service.CreateBatch(r.Context(), req.Prefix, req.Quantity, req.CodeFields)
	if err != nil {
		h.writeError(w, "create batch", err)
		return
	}

	status := http.StatusCreated
	if len(res.Failed) > 0 {
		h.logger.Warn("batch partially failed",
			zap.String("batchID", res.BatchID),
			zap.Int("created", len(res.Created)),
			zap.Int("failed", len(res.Failed)),
		)
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, res)
}

// ListCodes возвращает коды выбранного хранилища с учётом фильтра.
func (h *Handler) ListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.ListCodes(r.Context(), storeKey(r), codeFilter(r))
	if err != nil {
		h.writeError(w, "list codes", err)
		return
	}

	writeJSON(w, http.StatusOK, codes)
}

// GetCode возвращает один код из выбранного хранилища.
func (h *Handler) GetCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.service.GetCode(r.Context(), chi.URLParam(r, "code"), storeKey(r))
	if err != nil {
		h.writeError(w, "get code", err)
		return
	}

	writeJSON(w, http.StatusOK, code)
}

// UpdateCode обновляет код в выбранном хранилище.
func (h *Handler) UpdateCode(w http.ResponseWriter, r *http.Request) {
	var fields model.CodeFields
	if err := decodeJSON(r, &fields); err != nil {
		h.writeError(w, "update code", err)
		return
	}

	code, err := h.service.UpdateCode(r.Context(), chi.URLParam(r, "code"), fields, storeKey(r))
	if err != nil {
		h.writeError(w, "update code", err)
		return
	}

	writeJSON(w, http.StatusOK, code)
}

// DeleteCode удаляет код из выбранного хранилища.
func (h *Handler) DeleteCode(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCode(r.Context(), chi.URLParam(r, "code"), storeKey(r)); err != nil {
		h.writeError(w, "delete code", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteFiltered удаляет из выбранного хранилища все коды, подходящие под фильтр.
func (h *Handler) DeleteFiltered(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteFiltered(r.Context(), storeKey(r), codeFilter(r))
	if err != nil {
		h.writeError(w, "delete filtered codes", err)
		return
	}

	writeJSON(w, http.StatusOK, deleteFilteredResponse{Deleted: deleted})
}

// Reconcile сравнивает коллекции кодов двух хранилищ.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Reconcile(r.Context())
	if err != nil {
		h.writeError(w, "reconcile", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Divergences возвращает открытые расхождения из журнала.
func (h *Handler) Divergences(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.service.Divergences(r.Context(), limit)
	if err != nil {
		h.writeError(w, "list divergences", err)
		return
	}

	if len(items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ResolveDivergence помечает расхождение разрешённым.
func (h *Handler) ResolveDivergence(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.ResolveDivergence(r.Context(), id); err != nil {
		h.writeError(w, "resolve divergence", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
