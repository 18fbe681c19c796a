// Package handler содержит HTTP-обработчики API админ-панели Monster Fusion.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/monsterfusion-admin/internal/filestore"
	"github.com/mmeshcher/monsterfusion-admin/internal/journal"
	"github.com/mmeshcher/monsterfusion-admin/internal/middleware"
	"github.com/mmeshcher/monsterfusion-admin/internal/model"
	"github.com/mmeshcher/monsterfusion-admin/internal/repository"
	"github.com/mmeshcher/monsterfusion-admin/internal/service"
	"github.com/mmeshcher/monsterfusion-admin/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CreateCode(ctx context.Context, code string, fields model.CodeFields) (*model.GiftCode, error)
	CreateBatch(ctx context.Context, prefix string, quantity int, fields model.CodeFields) (*model.BatchResult, error)
	ListCodes(ctx context.Context, key model.StoreKey, f model.CodeFilter) ([]model.GiftCode, error)
	GetCode(ctx context.Context, code string, key model.StoreKey) (*model.GiftCode, error)
	UpdateCode(ctx context.Context, code string, fields model.CodeFields, key model.StoreKey) (*model.GiftCode, error)
	DeleteCode(ctx context.Context, code string, key model.StoreKey) error
	DeleteFiltered(ctx context.Context, key model.StoreKey, f model.CodeFilter) (int, error)

	Reconcile(ctx context.Context) (*model.ReconcileReport, error)
	Divergences(ctx context.Context, limit int) ([]model.Divergence, error)
	ResolveDivergence(ctx context.Context, id int64) error

	ListUsers(ctx context.Context, key model.StoreKey, query string, by model.UserSort) ([]model.User, error)
	BanUser(ctx context.Context, uid string, key model.StoreKey) error
	UnbanUser(ctx context.Context, uid string, key model.StoreKey) error

	ListFiles(ctx context.Context, path string) ([]model.StoredFile, error)
	UploadFile(ctx context.Context, path, name, contentType string, r io.Reader) (*model.StoredFile, error)
	CreateFolder(ctx context.Context, path, name string) error
	DeleteFile(ctx context.Context, path string) error
	DeleteFolder(ctx context.Context, path string) (int, error)
}

// Handler реализует HTTP-обработчики API админ-панели.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type errorResponse struct {
	Error   string           `json:"error"`
	Written []model.StoreKey `json:"written,omitempty"`
	Failed  []string         `json:"failed,omitempty"`
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login проверяет пароль администратора и выставляет cookie сессии.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.authMiddleware.Enabled() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !h.authMiddleware.Login(w, req.Password) {
		h.logger.Warn("admin login failed", zap.String("remote", r.RemoteAddr))
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type sessionResponse struct {
	AuthEnabled bool       `json:"authEnabled"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// Session сообщает, включена ли авторизация и когда истекает текущая сессия.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{AuthEnabled: h.authMiddleware.Enabled()}
	if expiry, ok := middleware.SessionExpiryFromContext(r.Context()); ok {
		resp.ExpiresAt = &expiry
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusFor сопоставляет доменную ошибку HTTP-статусу.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrDuplicateCode):
		return http.StatusConflict
	case errors.Is(err, repository.ErrCodeNotFound),
		errors.Is(err, filestore.ErrNotExist),
		errors.Is(err, journal.ErrDivergenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, validation.ErrInvalid),
		errors.Is(err, repository.ErrInvalidKey),
		errors.Is(err, repository.ErrUnknownStore):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrPartialWrite),
		errors.Is(err, repository.ErrTransport),
		errors.Is(err, repository.ErrBulkDelete):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrFilesDisabled),
		errors.Is(err, service.ErrJournalDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError отвечает JSON-описанием ошибки. Частичная запись и массовое удаление
// дополнительно сообщают, какие хранилища записаны и какие коды остались.
func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}

	resp := errorResponse{Error: err.Error()}

	var pwe *repository.PartialWriteError
	if errors.As(err, &pwe) {
		resp.Written = pwe.Written()
	}
	var bde *repository.BulkDeleteError
	if errors.As(err, &bde) {
		resp.Failed = bde.Codes()
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %v", validation.ErrInvalid, err)
	}
	return nil
}

// storeKey читает селектор хранилища из параметра db. По умолчанию выбирается основное хранилище.
func storeKey(r *http.Request) model.StoreKey {
	if db := r.URL.Query().Get("db"); db != "" {
		return model.StoreKey(db)
	}
	return model.StorePrimary
}
