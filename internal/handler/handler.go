// Package handler содержит HTTP-обработчики API шага выбора контейнера.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/skip-selection/internal/model"
	"github.com/mmeshcher/skip-selection/internal/projection"
	"github.com/mmeshcher/skip-selection/internal/repository"
	"github.com/mmeshcher/skip-selection/internal/selection"
)

// Store определяет контракт хранилища выбора, используемого HTTP-обработчиками.
type Store interface {
	Snapshot() model.Snapshot
	RequestCatalog(ctx context.Context) <-chan struct{}
	Refresh(ctx context.Context) <-chan struct{}
	Select(option model.SkipOption)
	ClearSelection()
	Continue(ctx context.Context) (model.Booking, error)
}

// BookingReader определяет доступ к сохранённым черновикам бронирования.
type BookingReader interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error)
}

// Handler реализует HTTP-обработчики API шага выбора контейнера.
type Handler struct {
	store  Store
	logger *zap.Logger
	cache  *projection.Cache
	// bookings может быть nil, если черновики не сохраняются.
	bookings BookingReader
	// appCtx ограничивает загрузки каталога временем жизни приложения, а не запроса.
	appCtx context.Context
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(appCtx context.Context, s Store, logger *zap.Logger) *Handler {
	return &Handler{
		store:  s,
		logger: logger,
		cache:  &projection.Cache{},
		appCtx: appCtx,
	}
}

// WithBookings подключает чтение сохранённых черновиков бронирования.
func (h *Handler) WithBookings(b BookingReader) *Handler {
	h.bookings = b
	return h
}

type skipResponse struct {
	ID               int64   `json:"id"`
	Size             int     `json:"size"`
	HirePeriodDays   int     `json:"hire_period_days"`
	PriceBeforeVAT   float64 `json:"price_before_vat"`
	VAT              float64 `json:"vat"`
	VATAmount        float64 `json:"vat_amount"`
	TotalPrice       float64 `json:"total_price"`
	AllowedOnRoad    bool    `json:"allowed_on_road"`
	AllowsHeavyWaste bool    `json:"allows_heavy_waste"`
	Selected         bool    `json:"selected"`
}

func toSkipResponse(s model.SkipOption, selected *model.SkipOption) skipResponse {
	return skipResponse{
		ID:               s.ID,
		Size:             s.Size,
		HirePeriodDays:   s.HirePeriodDays,
		PriceBeforeVAT:   s.PriceBeforeVAT,
		VAT:              s.VATPercent,
		VATAmount:        roundPrice(s.VATAmount()),
		TotalPrice:       roundPrice(s.TotalPrice()),
		AllowedOnRoad:    s.AllowedOnRoad,
		AllowsHeavyWaste: s.AllowsHeavyWaste,
		Selected:         selected != nil && selected.ID == s.ID,
	}
}

func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

type catalogResponse struct {
	Status      string         `json:"status"`
	Error       string         `json:"error,omitempty"`
	Sort        string         `json:"sort"`
	Road        string         `json:"road"`
	Total       int            `json:"total"`
	CanContinue bool           `json:"can_continue"`
	Selected    *skipResponse  `json:"selected"`
	Skips       []skipResponse `json:"skips"`
}

// GetSkips возвращает состояние загрузки и отсортированное и отфильтрованное представление каталога.
// Первое обращение запускает загрузку каталога.
func (h *Handler) GetSkips(w http.ResponseWriter, r *http.Request) {
	sortKey, err := projection.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	roadFilter, err := projection.ParseRoadFilter(r.URL.Query().Get("road"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	snap := h.store.Snapshot()
	if snap.Status == model.StatusIdle {
		h.store.RequestCatalog(h.appCtx)
		snap = h.store.Snapshot()
	}

	view := h.cache.Project(snap, sortKey, roadFilter)

	resp := catalogResponse{
		Status:      string(snap.Status),
		Error:       snap.ErrorMessage,
		Sort:        string(sortKey),
		Road:        string(roadFilter),
		Total:       len(snap.Catalog),
		CanContinue: snap.Selected != nil,
		Skips:       make([]skipResponse, 0, len(view)),
	}
	if snap.Selected != nil {
		sel := toSkipResponse(*snap.Selected, snap.Selected)
		resp.Selected = &sel
	}
	for _, s := range view {
		resp.Skips = append(resp.Skips, toSkipResponse(s, snap.Selected))
	}

	writeJSON(w, http.StatusOK, resp)
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RefreshSkips запускает повторную загрузку каталога по запросу пользователя.
func (h *Handler) RefreshSkips(w http.ResponseWriter, r *http.Request) {
	h.store.Refresh(h.appCtx)

	snap := h.store.Snapshot()
	writeJSON(w, http.StatusAccepted, statusResponse{
		Status: string(snap.Status),
		Error:  snap.ErrorMessage,
	})
}

// GetSelection возвращает выбранный вариант.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if snap.Selected == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, toSkipResponse(*snap.Selected, snap.Selected))
}

type selectRequest struct {
	ID *int64 `json:"id"`
}

// SelectSkip выбирает вариант каталога по идентификатору.
func (h *Handler) SelectSkip(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	snap := h.store.Snapshot()
	for _, s := range snap.Catalog {
		if s.ID == *req.ID {
			h.store.Select(s)
			writeJSON(w, http.StatusOK, toSkipResponse(s, &s))
			return
		}
	}

	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// ClearSelection сбрасывает выбранный вариант.
func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.store.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

type bookingResponse struct {
	ID         string       `json:"id"`
	Postcode   string       `json:"postcode"`
	Area       string       `json:"area"`
	Skip       skipResponse `json:"skip"`
	TotalPrice float64      `json:"total_price"`
	CreatedAt  string       `json:"created_at"`
}

// Continue передаёт выбранный вариант на следующий шаг оформления.
func (h *Handler) Continue(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.Continue(r.Context())
	if err != nil {
		if errors.Is(err, selection.ErrNoSelection) || errors.Is(err, repository.ErrBookingExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("continue selection error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// GetBooking возвращает сохранённый черновик бронирования.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	b, err := h.bookings.GetBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get booking error", zap.Error(err), zap.String("id", id.String()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponse(*b))
}

func toBookingResponse(b model.Booking) bookingResponse {
	return bookingResponse{
		ID:         b.ID.String(),
		Postcode:   b.Postcode,
		Area:       b.Area,
		Skip:       toSkipResponse(b.Skip, &b.Skip),
		TotalPrice: roundPrice(b.TotalPrice),
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
