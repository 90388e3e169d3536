package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/room-signup/internal/domain"
	"github.com/cwrk-planet/room-signup/internal/postgres"
	"github.com/cwrk-planet/room-signup/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type RoomAPI interface {
	CreateRoom(ctx context.Context, in service.CreateRoomInput) (*domain.Room, error)
	ListRooms(ctx context.Context, limit int, cursor string) ([]service.RoomSummary, string, error)
	DeleteRoom(ctx context.Context, ref string) (*domain.Room, error)
	DeleteAllRooms(ctx context.Context) error
}

type MemberAPI interface {
	Roster(ctx context.Context, ref string) (domain.Roster, error)
	GrantChannelAccess(ctx context.Context, ref, channelID string) (service.GrantResult, error)
}

type GuildAPI interface {
	Config(guildID string) (domain.GuildConfig, error)
	SetWatchedChannel(ctx context.Context, guildID, channelID string) (domain.GuildConfig, error)
	SetHostRole(ctx context.Context, guildID, roleID string) (domain.GuildConfig, error)
}

type Handler struct {
	rooms    RoomAPI
	members  MemberAPI
	guilds   GuildAPI
	validate *validator.Validate
	log      *slog.Logger
}

func NewHandler(rooms RoomAPI, members MemberAPI, guilds GuildAPI, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		rooms:    rooms,
		members:  members,
		guilds:   guilds,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// POST /guilds/{guildID}/config
func (h *Handler) SetGuildConfig(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	var req GuildConfigRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		g   domain.GuildConfig
		err error
	)
	if req.ChannelID != nil {
		if g, err = h.guilds.SetWatchedChannel(r.Context(), guildID, *req.ChannelID); err != nil {
			h.fail(w, r, "handler.SetGuildConfig", err)
			return
		}
	}
	if req.HostRoleID != nil {
		if g, err = h.guilds.SetHostRole(r.Context(), guildID, *req.HostRoleID); err != nil {
			h.fail(w, r, "handler.SetGuildConfig", err)
			return
		}
	}
	ok(w, http.StatusOK, guildItem(g))
}

// GET /guilds/{guildID}/config
func (h *Handler) GetGuildConfig(w http.ResponseWriter, r *http.Request) {
	g, err := h.guilds.Config(chi.URLParam(r, "guildID"))
	if err != nil {
		h.fail(w, r, "handler.GetGuildConfig", err)
		return
	}
	ok(w, http.StatusOK, guildItem(g))
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if !h.decode(w, r, &req) {
		return
	}
	room, err := h.rooms.CreateRoom(r.Context(), service.CreateRoomInput{
		GuildID: req.GuildID,
		HostID:  req.HostID,
		Date:    req.Date,
		Time:    req.Time,
	})
	if err != nil {
		h.fail(w, r, "handler.CreateRoom", err)
		return
	}
	ok(w, http.StatusCreated, roomItem(*room, 0))
}

// GET /rooms?limit=&cursor=
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			fail(w, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		limit = n
	}

	items, next, err := h.rooms.ListRooms(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		h.fail(w, r, "handler.ListRooms", err)
		return
	}
	ok(w, http.StatusOK, RoomsListResponse{Items: lo.Map(items, summaryItem), NextCursor: next})
}

// GET /rooms/{ref}
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.members.Roster(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.fail(w, r, "handler.GetRoster", err)
		return
	}
	ok(w, http.StatusOK, rosterResponse(roster))
}

// DELETE /rooms/{ref}
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.DeleteRoom(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.fail(w, r, "handler.DeleteRoom", err)
		return
	}
	ok(w, http.StatusOK, envelope{"deleted": room.Number})
}

// DELETE /rooms
func (h *Handler) DeleteAllRooms(w http.ResponseWriter, r *http.Request) {
	if err := h.rooms.DeleteAllRooms(r.Context()); err != nil {
		h.fail(w, r, "handler.DeleteAllRooms", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /rooms/{ref}/grants
func (h *Handler) GrantChannelAccess(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.members.GrantChannelAccess(r.Context(), chi.URLParam(r, "ref"), req.ChannelID)
	if err != nil {
		h.fail(w, r, "handler.GrantChannelAccess", err)
		return
	}
	ok(w, http.StatusOK, GrantResponse{Granted: res.Granted, Failed: res.Failed})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		fail(w, http.StatusBadRequest, "invalid json", nil)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]any, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			fail(w, http.StatusBadRequest, "validation failed", fields)
			return false
		}
		fail(w, http.StatusBadRequest, err.Error(), nil)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		fail(w, http.StatusNotFound, "room not found", nil)
	case errors.Is(err, domain.ErrInvalidRoomRef):
		fail(w, http.StatusBadRequest, "invalid room reference", nil)
	case errors.Is(err, postgres.ErrInvalidCursor):
		fail(w, http.StatusBadRequest, "invalid_cursor", nil)
	case errors.Is(err, domain.ErrGuildNotConfigured):
		fail(w, http.StatusConflict, "guild has no signup channel configured", nil)
	default:
		h.log.ErrorContext(r.Context(), op, slog.Any("err", err))
		fail(w, http.StatusInternalServerError, "internal error", nil)
	}
}
