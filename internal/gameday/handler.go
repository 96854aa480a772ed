package gameday

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/ledger"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/platform/httpx"
)

// Handler exposes gameday processing as a JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	xref      *Xref
	validator *validator.Validate
}

// NewHandler builds the gameday handler.
func NewHandler(logger *slog.Logger, service *Service, xref *Xref) *Handler {
	return &Handler{logger: logger, service: service, xref: xref, validator: validator.New()}
}

// MountRoutes registers gameday routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/gameday/process", h.process)
	r.Post("/gameday/preview", h.preview)
	r.Post("/gameday/punch", h.punch)
	r.Post("/gameday/xref", h.addXref)
}

type attendeeDTO struct {
	MeetupID   string `json:"meetup_id" validate:"required"`
	MeetupName string `json:"meetup_name"`
	SignupTime string `json:"signup_time"`
}

type processRequest struct {
	Date      string        `json:"date" validate:"required,len=8,numeric"`
	Override  bool          `json:"override"`
	Attendees []attendeeDTO `json:"attendees" validate:"required,min=1,dive"`
}

func toAttendees(dtos []attendeeDTO) []Attendee {
	out := make([]Attendee, 0, len(dtos))
	for _, d := range dtos {
		a := Attendee{MeetupID: d.MeetupID, MeetupName: d.MeetupName}
		if d.SignupTime != "" {
			if t, err := time.Parse(time.RFC3339, d.SignupTime); err == nil {
				a.SignupTime = t
			}
		}
		out = append(out, a)
	}
	return out
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.Process(r.Context(), req.Date, toAttendees(req.Attendees), req.Override)
	switch {
	case errors.Is(err, ledger.ErrAlreadyProcessed):
		httpx.Problem(w, http.StatusConflict, "Already Processed",
			"this date already appears on a punchcard; set override to process anyway")
		return
	case err != nil:
		h.logger.Error("process gameday", slog.String("date", req.Date), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entries := h.service.Preview(req.Date, toAttendees(req.Attendees))
	httpx.JSON(w, http.StatusOK, map[string]any{"players": entries})
}

type punchRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
	Date     string `json:"date" validate:"required,len=8,numeric"`
	Half     bool   `json:"half"`
}

func (h *Handler) punch(w http.ResponseWriter, r *http.Request) {
	var req punchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	out, err := h.service.ManualPunch(r.Context(), req.PlayerID, req.Date, req.Half)
	switch {
	case errors.Is(err, ledger.ErrUnknownPlayer):
		httpx.Problem(w, http.StatusNotFound, "Unknown Player", "player is not on the roster")
		return
	case errors.Is(err, ledger.ErrNoFreeSlot):
		httpx.Problem(w, http.StatusConflict, "No Free Slot", "no punchcard or past-due slot can take this charge")
		return
	case err != nil:
		h.logger.Error("manual punch", slog.String("player", req.PlayerID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

type xrefRequest struct {
	MeetupName string `json:"meetup_name" validate:"required"`
	MeetupID   string `json:"meetup_id" validate:"required"`
	HockeyID   string `json:"hockey_id" validate:"required"`
}

func (h *Handler) addXref(w http.ResponseWriter, r *http.Request) {
	var req xrefRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.xref.Add(req.MeetupName, req.MeetupID, req.HockeyID); err != nil {
		if errors.Is(err, ErrDuplicateXref) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "meetup ID is already cross-referenced")
			return
		}
		h.logger.Error("add xref", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"hockey_id": req.HockeyID})
}
