package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/platform/httpx"
)

// PurchaseNotifier delivers the purchase confirmation email. The handler
// treats delivery as best effort; a queue hiccup never voids the purchase.
type PurchaseNotifier interface {
	PurchaseConfirmed(ctx context.Context, res PurchaseResult) error
}

// Handler exposes the ledger operations as a JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	notifier  PurchaseNotifier
	validator *validator.Validate
}

// NewHandler builds the ledger handler.
func NewHandler(logger *slog.Logger, service *Service, notifier PurchaseNotifier) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		notifier:  notifier,
		validator: validator.New(),
	}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/punchcards", h.listPunchcards)
	r.Post("/punchcards/purchase", h.purchase)
	r.Get("/punchcards/pastdue", h.listPastDue)
	r.Post("/charges", h.charge)
	r.Post("/ledger/flush", h.flush)
	r.Post("/ledger/archive", h.archive)
	r.Get("/reports/punches", h.punchReport)
	r.Get("/reports/prepaid", h.prepaidReport)
	r.Get("/reports/duplicates", h.duplicateReport)
}

type recordDTO struct {
	OwnerID      string   `json:"owner_id"`
	OwnerName    string   `json:"owner_name"`
	AltPayerID   string   `json:"alt_payer_id,omitempty"`
	AltPayerName string   `json:"alt_payer_name,omitempty"`
	Status       string   `json:"status"`
	PurchaseDate string   `json:"purchase_date,omitempty"`
	Format       string   `json:"format"`
	Slots        []string `json:"slots"`
	Used         int      `json:"used"`
	Remaining    int      `json:"remaining"`
}

func toRecordDTO(r *Record) recordDTO {
	used, remaining, total := CountSlots(r)
	slots := make([]string, 0, total)
	for i := 0; i < total; i++ {
		slots = append(slots, r.Slot(i))
	}
	return recordDTO{
		OwnerID:      r.OwnerID,
		OwnerName:    r.OwnerName,
		AltPayerID:   r.AltPayerID,
		AltPayerName: r.AltPayerName,
		Status:       string(r.Status),
		PurchaseDate: r.PurchaseDate,
		Format:       string(r.Format),
		Slots:        slots,
		Used:         used,
		Remaining:    remaining,
	}
}

func (h *Handler) listPunchcards(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("player")
	status := Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status filter")
		return
	}
	records := h.service.Punchcards(player, status)
	out := make([]recordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordDTO(rec))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"punchcards": out})
}

func (h *Handler) listPastDue(w http.ResponseWriter, r *http.Request) {
	records := h.service.PastDueRecords()
	out := make([]recordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordDTO(rec))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"punchcards": out})
}

type purchaseRequest struct {
	PlayerID     string `json:"player_id" validate:"required"`
	PurchaseDate string `json:"purchase_date" validate:"required,len=8,numeric"`
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	res, err := h.service.Purchase(r.Context(), req.PlayerID, req.PurchaseDate)
	switch {
	case errors.Is(err, ErrUnknownPlayer):
		httpx.Problem(w, http.StatusNotFound, "Unknown Player", "player is not on the roster")
		return
	case errors.Is(err, ErrNoEmail):
		httpx.Problem(w, http.StatusUnprocessableEntity, "No Email", "player has no email address on the roster")
		return
	case err != nil:
		h.logger.Error("purchase", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if h.notifier != nil {
		if err := h.notifier.PurchaseConfirmed(r.Context(), res); err != nil {
			h.logger.Warn("purchase confirmation not queued",
				slog.String("player", req.PlayerID), slog.Any("error", err))
		}
	}
	if _, err := h.service.Flush(r.Context(), false); err != nil {
		h.logger.Error("flush after purchase", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"punchcard":     toRecordDTO(res.Record),
		"from_past_due": res.FromPastDue,
	})
}

type chargeRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
	Date     string `json:"date" validate:"required,len=8,numeric"`
}

// charge applies a single raw charge without notifications. Gameday
// processing is the usual path; this is the operator correction tool.
func (h *Handler) charge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	res, err := h.service.Charge(r.Context(), req.PlayerID, req.Date)
	switch {
	case errors.Is(err, ErrUnknownPlayer):
		httpx.Problem(w, http.StatusNotFound, "Unknown Player", "player is not on the roster")
		return
	case errors.Is(err, ErrNoFreeSlot):
		httpx.Problem(w, http.StatusConflict, "No Free Slot", "no punchcard or past-due slot can take this charge")
		return
	case err != nil:
		h.logger.Error("charge", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.Flush(r.Context(), false); err != nil {
		h.logger.Error("flush after charge", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"punchcard":  toRecordDTO(res.Record),
		"slot_index": res.SlotIndex,
		"alternate":  res.Alternate,
		"past_due":   res.PastDue,
		"remaining":  res.Remaining,
	})
}

type anomalyDTO struct {
	Kind    string `json:"kind"`
	OwnerID string `json:"owner_id"`
}

type flushRequest struct {
	Force bool `json:"force"`
}

func (h *Handler) flush(w http.ResponseWriter, r *http.Request) {
	var req flushRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
			return
		}
	}

	anomalies, err := h.service.Flush(r.Context(), req.Force)
	out := make([]anomalyDTO, 0, len(anomalies))
	for _, a := range anomalies {
		out = append(out, anomalyDTO{Kind: string(a.Kind), OwnerID: a.OwnerID})
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		httpx.JSON(w, http.StatusConflict, map[string]any{
			"saved":     false,
			"anomalies": out,
		})
		return
	}
	if err != nil {
		h.logger.Error("flush", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"saved": true, "anomalies": out})
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Archive(r.Context())
	if err != nil {
		h.logger.Error("archive", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"archived": count})
}

func (h *Handler) punchReport(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if len(start) != 8 || len(end) != 8 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start and end must be YYYYMMDD dates")
		return
	}
	counts, sessions, err := h.service.PunchesInRange(r.Context(), start, end)
	if err != nil {
		h.logger.Error("punch report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"players":  counts,
		"sessions": sessions,
	})
}

func (h *Handler) prepaidReport(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"prepaid_punches": h.service.PrepaidPunches()})
}

func (h *Handler) duplicateReport(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"duplicates": h.service.Duplicates()})
}
