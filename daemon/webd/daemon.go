package webd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/olahol/melody"
	"github.com/rotblauer/bustrack/api"
	"github.com/rotblauer/bustrack/params"
)

type WebDaemon struct {
	Config         *params.WebDaemonConfig
	Service        *api.Service
	logger         *slog.Logger
	melodyInstance *melody.Melody
	started        time.Time
	stopFeeds      func()
}

// NewWebDaemon opens the service for the configured data dir.
// The daemon holds the store's write lock until Close.
func NewWebDaemon(ctx context.Context, config *params.WebDaemonConfig) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	svc, err := api.NewService(ctx, &api.Config{
		DataDir: config.DataDir,
		Sinks:   config.Sinks,
		Influx:  config.Influx,
	})
	if err != nil {
		return nil, err
	}
	s := &WebDaemon{
		Config:  config,
		Service: svc,
		logger:  slog.With("d", "web"),
		started: time.Now(),
	}
	s.initMelody()
	return s, nil
}

// Run serves HTTP on the configured listener until the context is canceled,
// then shuts down gracefully.
func (s *WebDaemon) Run(ctx context.Context) error {
	listener, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		s.logger.Info("Starting web daemon", "network", s.Config.Network, "address", listener.Addr().String())
		errs <- server.Serve(listener)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("Stopping web daemon")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.melodyInstance.Close(); err != nil {
		s.logger.Warn("Failed to close websockets", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the service. Call after Run returns.
func (s *WebDaemon) Close() error {
	if s.stopFeeds != nil {
		s.stopFeeds()
	}
	return s.Service.Close()
}

func (s *WebDaemon) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(s.loggingMiddleware)

	// Handle websocket.
	router.Path("/socket").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.melodyInstance.HandleRequest(w, r)
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	// History renders as GeoJSON, JSON or a text timeline; it sets its own content type.
	apiRoutes.Path("/buses/{bus}/history").HandlerFunc(s.handleHistory).Methods(http.MethodGet)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/buses").HandlerFunc(s.handleBuses).Methods(http.MethodGet)
	apiJSONRoutes.Path("/live").HandlerFunc(s.handleLive).Methods(http.MethodGet)
	apiJSONRoutes.Path("/nearby").HandlerFunc(s.handleNearby).Methods(http.MethodGet)
	apiJSONRoutes.Path("/buses/{bus}/last").HandlerFunc(s.handleLast).Methods(http.MethodGet)
	apiJSONRoutes.Path("/buses/{bus}/status").HandlerFunc(s.handleStatus).Methods(http.MethodGet)

	authenticatedAPIRoutes := apiJSONRoutes.NewRoute().Subrouter()
	authenticatedAPIRoutes.Use(s.tokenAuthenticationMiddleware)

	authenticatedAPIRoutes.Path("/populate/{bus}").HandlerFunc(s.handlePopulate).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/buses/{bus}").HandlerFunc(s.handlePutDetails).Methods(http.MethodPut, http.MethodPost)
	authenticatedAPIRoutes.Path("/buses/{bus}/history").HandlerFunc(s.handleDeleteHistory).Methods(http.MethodDelete)

	return router
}
