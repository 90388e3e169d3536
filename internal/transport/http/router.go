package http

import (
	"log/slog"
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/room-signup/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	AdminToken     string
	RequestTimeout time.Duration
}

// Все маршруты, кроме healthz и ws, требуют Bearer admin token. wsHandler может быть nil.
func NewRouter(h *Handler, wsHandler http.HandlerFunc, cfg RouterConfig, log *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(httpmw.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httpmw.Logging(log))
	r.Use(middlewareChi.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if wsHandler != nil {
		r.Get("/ws/rooms/{ref}", wsHandler)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.BearerAuth(cfg.AdminToken))
		pr.Use(middlewareChi.Timeout(cfg.RequestTimeout))

		pr.Route("/guilds/{guildID}/config", func(gr chi.Router) {
			gr.Get("/", h.GetGuildConfig)
			gr.Post("/", h.SetGuildConfig)
		})

		pr.Route("/rooms", func(rm chi.Router) {
			rm.Post("/", h.CreateRoom)
			rm.Get("/", h.ListRooms)
			rm.Delete("/", h.DeleteAllRooms)

			rm.Route("/{ref}", func(rr chi.Router) {
				rr.Get("/", h.GetRoster)
				rr.Delete("/", h.DeleteRoom)
				rr.Post("/grants", h.GrantChannelAccess)
			})
		})
	})

	return r
}
