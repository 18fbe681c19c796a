package handler

import (
	"net/http"
	"strconv"

	"github.com/mmeshcher/monsterfusion-admin/internal/validation"
)

// maxUploadSize ограничивает размер загружаемого файла.
const maxUploadSize = 64 << 20

type createFolderRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

type deleteFolderResponse struct {
	Deleted int `json:"deleted"`
}

// ListFiles возвращает содержимое папки файлового хранилища.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.ListFiles(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		h.writeError(w, "list files", err)
		return
	}

	writeJSON(w, http.StatusOK, files)
}

// UploadFile загружает файл из multipart-поля "file" в папку path.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	defer file.Close()

	stored, err := h.service.UploadFile(r.Context(), r.URL.Query().Get("path"), header.Filename,
		header.Header.Get("Content-Type"), file)
	if err != nil {
		h.writeError(w, "upload file", err)
		return
	}

	writeJSON(w, http.StatusCreated, stored)
}

// CreateFolder создаёт папку.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, "create folder", err)
		return
	}

	if err := h.service.CreateFolder(r.Context(), req.Path, req.Name); err != nil {
		h.writeError(w, "create folder", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// DeleteFile удаляет файл или, при folder=true, папку целиком.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")

	folder, err := strconv.ParseBool(q.Get("folder"))
	if err != nil && q.Get("folder") != "" {
		h.writeError(w, "delete file", validation.ErrInvalid)
		return
	}

	if !folder {
		if err := h.service.DeleteFile(r.Context(), path); err != nil {
			h.writeError(w, "delete file", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	deleted, err := h.service.DeleteFolder(r.Context(), path)
	if err != nil {
		h.writeError(w, "delete folder", err)
		return
	}

	writeJSON(w, http.StatusOK, deleteFolderResponse{Deleted: deleted})
}
