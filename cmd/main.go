package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/room-signup/config"
	"github.com/cwrk-planet/room-signup/internal/cache"
	"github.com/cwrk-planet/room-signup/internal/discord"
	"github.com/cwrk-planet/room-signup/internal/pg"
	"github.com/cwrk-planet/room-signup/internal/postgres"
	"github.com/cwrk-planet/room-signup/internal/service"
	"github.com/cwrk-planet/room-signup/internal/signup"
	grpcx "github.com/cwrk-planet/room-signup/internal/transport/grpc"
	httpx "github.com/cwrk-planet/room-signup/internal/transport/http"
	"github.com/cwrk-planet/room-signup/internal/transport/ws"
	"github.com/cwrk-planet/room-signup/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg := logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting room-signup",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "exclusivity", cfg.Signup.Exclusivity)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- postgres ---
	maxLifetime, maxIdle, stmtTimeout := cfg.Postgres.Lifetimes()
	db, err := pg.NewPool(ctx, pg.Config{
		DSN:              cfg.Postgres.DSN,
		MaxConns:         cfg.Postgres.MaxConns,
		MinConns:         cfg.Postgres.MinConns,
		MaxConnLifetime:  maxLifetime,
		MaxConnIdleTime:  maxIdle,
		ApplicationName:  cfg.Logging.Service,
		StatementTimeout: stmtTimeout,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	if cfg.Postgres.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("postgres migrate: %v", err)
		}
	}

	// --- repos ---
	roomRepo := postgres.NewRoomRepository(db)
	memberRepo := postgres.NewMembershipRepository(db)
	guildRepo := postgres.NewGuildRepository(db)

	// --- tracked rooms: nothing is served on a partial view ---
	tracked, err := cache.Bootstrap(ctx, roomRepo, guildRepo)
	if err != nil {
		log.Fatalf("cache bootstrap: %v", err)
	}

	// --- discord ---
	session, err := discord.NewSession(discord.SessionConfig{
		Token:         cfg.Discord.Token,
		StateMessages: cfg.Discord.StateMessages,
	})
	if err != nil {
		log.Fatalf("discord: %v", err)
	}
	client := discord.NewClient(session)

	// --- engine & services ---
	hub := ws.NewHub()
	engine := signup.New(signup.Deps{
		Store:         memberRepo,
		Tracker:       tracked,
		Reactions:     client,
		Announcements: client,
		DMs:           client,
		Feed:          hub,
		Policy:        cfg.Signup.Exclusivity,
		Logger:        lg,
	})

	roomSvc := service.NewRoomService(roomRepo, memberRepo, tracked, client, lg)
	memberSvc := service.NewMemberService(roomSvc, memberRepo, client, lg)
	guildSvc := service.NewGuildService(guildRepo, tracked)

	// --- gRPC (health) ---
	grpcSrv := grpcx.NewServer(lg)

	gateway := discord.NewGateway(ctx, engine, roomSvc, lg,
		discord.WithReady(func() { grpcSrv.SetServing(true) }))
	gateway.Register(session)
	if err := session.Open(); err != nil {
		log.Fatalf("discord open: %v", err)
	}

	// --- HTTP ---
	wsServer := ws.NewServer(hub, memberSvc, cfg.Admin.Token, lg)
	handler := httpx.NewHandler(roomSvc, memberSvc, guildSvc, lg)
	readTimeout, writeTimeout, requestTimeout := cfg.HTTP.Timeouts()
	router := httpx.NewRouter(handler, wsServer.HandleWS, httpx.RouterConfig{
		AdminToken:     cfg.Admin.Token,
		RequestTimeout: requestTimeout,
	}, lg)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// --- run both servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal")
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := session.Close(); err != nil {
		slog.Warn("discord close", "err", err)
	}
	if err := gateway.Drain(ctxShutdown); err != nil {
		slog.Warn("in-flight events still running at exit", "err", err)
	}
	grpcSrv.Shutdown()
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
