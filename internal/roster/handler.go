package roster

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/notify"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/platform/httpx"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/settings"
)

// Handler exposes the roster as a JSON API.
type Handler struct {
	logger    *slog.Logger
	store     *Store
	mailer    *notify.Mailer
	club      settings.Club
	validator *validator.Validate
}

// NewHandler builds the roster handler. Mailer may be nil when the queue
// is not configured; invites are then skipped.
func NewHandler(logger *slog.Logger, store *Store, mailer *notify.Mailer, club settings.Club) *Handler {
	return &Handler{logger: logger, store: store, mailer: mailer, club: club, validator: validator.New()}
}

// MountRoutes registers roster routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/players", h.listPlayers)
	r.Get("/players/search", h.searchPlayers)
	r.Post("/players", h.addPlayer)
}

type playerDTO struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Stars           int    `json:"stars"`
	CumulativeStars int    `json:"cumulative_stars"`
}

func toPlayerDTO(p Player) playerDTO {
	return playerDTO{
		ID:              p.ID,
		DisplayName:     p.DisplayName,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		Phone:           p.Phone,
		Stars:           p.Stars,
		CumulativeStars: p.CumulativeStars,
	}
}

func (h *Handler) listPlayers(w http.ResponseWriter, r *http.Request) {
	players := h.store.Players()
	out := make([]playerDTO, 0, len(players))
	for _, p := range players {
		out = append(out, toPlayerDTO(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"players": out})
}

func (h *Handler) searchPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "q is required")
		return
	}
	players := h.store.Find(q)
	out := make([]playerDTO, 0, len(players))
	for _, p := range players {
		out = append(out, toPlayerDTO(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"players": out})
}

type addPlayerRequest struct {
	ID          string `json:"id" validate:"required"`
	DisplayName string `json:"display_name" validate:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Invite      bool   `json:"invite"`
}

func (h *Handler) addPlayer(w http.ResponseWriter, r *http.Request) {
	var req addPlayerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	p := Player{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
	}
	if err := h.store.Add(p); err != nil {
		if errors.Is(err, ErrDuplicatePlayer) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "player ID already on the roster")
			return
		}
		h.logger.Error("add player", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.store.Save(); err != nil {
		h.logger.Error("save roster", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if req.Invite && req.Email != "" && h.mailer != nil {
		if err := h.mailer.SendWithCopies(r.Context(), req.Email, h.club.CCInvite, notify.Invite()); err != nil {
			h.logger.Warn("invite not queued", slog.String("player", req.ID), slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusCreated, toPlayerDTO(p))
}
