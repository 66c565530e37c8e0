package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/roomly/apiserver/config"
	"github.com/roomly/apiserver/internal/db"
	"github.com/roomly/apiserver/internal/handlers"
	"github.com/roomly/apiserver/internal/logging"
	"github.com/roomly/apiserver/internal/mq"
	"github.com/roomly/apiserver/internal/services"
	"github.com/roomly/apiserver/internal/storage"
	"github.com/roomly/apiserver/internal/store"
	"github.com/sirupsen/logrus"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	objects    storage.ObjectStorage
	logger     *logrus.Logger
}

// New constructs a Server with its dependencies connected.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := logging.New(cfg.Log)

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	objects, err := storage.NewBackend(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	pictureStorage := storage.NewStorage(objects, cfg.Storage.PublicBaseURL)
	if err := pictureStorage.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		closeBackend(objects)
		return nil, fmt.Errorf("ensure bucket %q: %w", pictureStorage.Bucket(), err)
	}

	queue, err := mq.NewFromConfig(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		closeBackend(objects)
		return nil, fmt.Errorf("init mq: %w", err)
	}

	var events *services.Events
	if queue != nil {
		events = services.NewEvents(queue, cfg.MQ.Channel, logger)
	}

	userRepo := store.NewUserRepository(dbConn)
	accounts := services.NewAccountService(userRepo, events, logger)
	pictures := services.NewPictureService(userRepo, pictureStorage, services.PictureConfig{
		Folder:   cfg.Storage.Folder,
		MaxBytes: cfg.Storage.MaxPhotoBytes,
	}, events, logger)

	router := newRouter(logger, accounts, pictures)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.WithFields(logrus.Fields{
		"port":    port,
		"storage": cfg.Storage.Backend,
		"mq":      cfg.MQ.Backend,
	}).Info("server configured")

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		objects:    objects,
		logger:     logger,
	}, nil
}

func newRouter(logger logrus.FieldLogger, accounts handlers.Accounts, pictures handlers.Pictures) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger(logger),
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/user", func(r chi.Router) {
		handlers.UserRouter(r, accounts, pictures, logger)
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("listening")
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown attempts a graceful shutdown and releases every connection.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.queue != nil {
		if closeErr := s.queue.Close(); closeErr != nil {
			s.logger.WithError(closeErr).Warn("close mq")
		}
	}
	closeBackend(s.objects)
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}

func closeBackend(objects storage.ObjectStorage) {
	if closer, ok := objects.(io.Closer); ok {
		_ = closer.Close()
	}
}
