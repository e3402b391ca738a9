// Command illumiterm runs a single shell session behind an HTTP and
// WebSocket surface. It spawns the child on a pseudo-terminal, serves
// attached frontends, and exits with the child's exit status once the
// session ends.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/illumiterm/backend/api/handlers"
	"github.com/illumiterm/backend/internal/clipboard"
	"github.com/illumiterm/backend/internal/cmdline"
	"github.com/illumiterm/backend/internal/command"
	"github.com/illumiterm/backend/internal/config"
	"github.com/illumiterm/backend/internal/db"
	"github.com/illumiterm/backend/internal/geometry"
	"github.com/illumiterm/backend/internal/keymap"
	"github.com/illumiterm/backend/internal/model"
	"github.com/illumiterm/backend/internal/repository"
	"github.com/illumiterm/backend/internal/session"
	"github.com/illumiterm/backend/internal/term"
	"github.com/illumiterm/backend/internal/ws"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cmdFlag := flag.StringP("cmd", "e", "", "command to run instead of the login shell")
	flag.Parse()

	// A bare positional argument works like --cmd, matching how the
	// binary is usually invoked from other programs.
	cmd := *cmdFlag
	if cmd == "" && flag.NArg() > 0 {
		cmd = strings.Join(flag.Args(), " ")
	}

	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	// Snapshot the invocation context before anything mutates the
	// process environment.
	cli, err := cmdline.NewContext(cmd)
	if err != nil {
		log.Fatal("failed to capture invocation context", zap.Error(err))
	}
	argv := command.Resolve(cli.Command(), cli.Getenv)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatal("failed to create database directory", zap.Error(err))
	}
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		log.Fatal("failed to create log directory", zap.Error(err))
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.CloseDB()

	sessionRepo := repository.NewSessionRepository(database)

	now := time.Now()
	sess := &model.Session{
		ID:        uuid.New().String(),
		Command:   cli.Command(),
		Argv:      argv,
		Workdir:   cli.Dir(),
		Env:       cli.Environ(),
		Status:    model.SessionStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess.LogFilePath = filepath.Join(cfg.LogDir, sess.ID+".cast")

	if err := sessionRepo.Create(context.Background(), sess); err != nil {
		log.Warn("failed to persist session", zap.Error(err))
	}

	hub := ws.NewHub()
	frontend := ws.NewFrontend(hub, log)

	var wsHandler atomic.Pointer[ws.Handler]
	var handleRef atomic.Pointer[session.Handle]

	teardown := func() {
		if h := wsHandler.Load(); h != nil {
			code := cli.ExitStatus()
			h.BroadcastStatus(string(model.SessionStatusClosed), &code)
		}
		if h := handleRef.Load(); h != nil {
			h.Close()
		}
		hub.Close()
	}

	coord := session.NewCoordinator(cli, sess, sessionRepo, frontend, teardown, log)

	launcher := session.NewLauncher(log, cfg.ReplaySize)
	handle := launcher.Launch(session.LaunchOptions{
		Session:     sess,
		Rows:        cfg.Rows,
		Cols:        cfg.Cols,
		TermOptions: term.DefaultOptions(),
		OnExit: func(status int, err error) {
			coord.ChildExited(status)
		},
	})
	handleRef.Store(handle)
	go coord.WatchSpawn(handle)

	geo := geometry.New(frontend, frontend)
	actions := session.NewKeyActions(geo, frontend, clipboard.System(), handle, log)
	keys := keymap.NewDispatcher(actions)

	wsh := ws.NewHandler(hub, frontend, handle, coord, keys, log)
	wsHandler.Store(wsh)
	wsh.SetOnTitle(coord.SetTitle)

	sessionHandler := handlers.NewSessionHandler(coord, sessionRepo)
	attachHandler := handlers.NewWebSocketHandler(coord, wsh)

	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		sessionHandler.RegisterRoutes(api)
		attachHandler.RegisterRoutes(api)
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		log.Info("starting server",
			zap.String("addr", cfg.Addr()),
			zap.Strings("argv", argv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// A termination signal kills the child; the coordinator then
	// finalizes off the reaper as if the child had died on its own.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("termination signal received")
		handle.Close()
	}()

	<-coord.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("server shutdown failed", zap.Error(err))
	}

	db.CloseDB()
	log.Sync()
	os.Exit(cli.ExitStatus())
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
