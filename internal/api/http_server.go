package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"guesthouse/internal/config"
	"guesthouse/internal/domain"
	"guesthouse/internal/metrics"
	"guesthouse/internal/models"
	"guesthouse/internal/report"
	"guesthouse/internal/service"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// Exporter renders the admin workbook.
type Exporter interface {
	WriteTo(ctx context.Context, w io.Writer) error
}

// RoomAdmin edits the room catalog.
type RoomAdmin interface {
	SaveRoom(ctx context.Context, id string, room models.Room) (*models.Room, error)
	DeleteRoom(ctx context.Context, id string) (bool, error)
}

// HTTPDeps are the collaborators behind the HTTP API. Reports, Exporter, Rooms
// and Mode may be nil; the matching endpoints then answer 503 or omit the field.
type HTTPDeps struct {
	Bookings domain.BookingService
	Payments domain.PaymentService
	Contact  *service.ContactService
	Reports  domain.ReportStore
	Exporter Exporter
	Rooms    RoomAdmin
	Mode     ModeSource
}

// HTTPServer exposes the booking funnel JSON API.
type HTTPServer struct {
	cfg    *config.APIConfig
	deps   HTTPDeps
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg *config.APIConfig, deps HTTPDeps, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, deps: deps, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	srv.routes(mux)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           loggingMiddleware(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	// public
	s.handle(mux, "GET /api/v1/rooms", "", s.handleRooms)
	s.handle(mux, "GET /api/v1/rooms/{id}", "", s.handleRoom)
	s.handle(mux, "GET /api/v1/rooms/{id}/availability", "", s.handleRoomAvailability)
	s.handle(mux, "POST /api/v1/quote", "", s.handleQuote)
	s.handle(mux, "POST /api/v1/bookings", "", s.handleCreateBooking)
	s.handle(mux, "POST /api/v1/bookings/{id}/payments", "", s.handleRecordPayment)
	s.handle(mux, "GET /api/v1/contact", "", s.handleContact)

	// staff
	s.handle(mux, "GET /api/v1/bookings", PermReadBookings, s.handleListBookings)
	s.handle(mux, "GET /api/v1/bookings/{id}", PermReadBookings, s.handleGetBooking)
	s.handle(mux, "PATCH /api/v1/bookings/{id}/status", PermWriteBookings, s.handleSetBookingStatus)
	s.handle(mux, "GET /api/v1/bookings/{id}/payments", PermReadPayments, s.handleBookingPayments)
	s.handle(mux, "POST /api/v1/bookings/{id}/reconcile", PermWritePayments, s.handleReconcile)
	s.handle(mux, "GET /api/v1/payments", PermReadPayments, s.handleListPayments)
	s.handle(mux, "PATCH /api/v1/payments/{id}/status", PermWritePayments, s.handleSetPaymentStatus)
	s.handle(mux, "GET /api/v1/admin/reports/{name}", PermReadReports, s.handleReport)
	s.handle(mux, "GET /api/v1/admin/export", PermReadReports, s.handleExport)
	s.handle(mux, "POST /api/v1/admin/purge", PermAdminMaintenance, s.handlePurge)
	s.handle(mux, "PUT /api/v1/admin/rooms/{id}", PermAdminMaintenance, s.handleSaveRoom)
	s.handle(mux, "DELETE /api/v1/admin/rooms/{id}", PermAdminMaintenance, s.handleDeleteRoom)
}

// handle registers an API route. An empty permission marks a public route,
// which skips key checks but is still rate limited.
func (s *HTTPServer) handle(mux *http.ServeMux, pattern, permission string, h http.HandlerFunc) {
	endpoint := pattern
	mux.Handle(pattern, s.auth.Require(permission, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.IncHTTP(endpoint)
		h(w, r)
	})))
}

// Handler returns the root handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HTTPAuth provides API-key auth and per-key rate limiting for HTTP endpoints.
type HTTPAuth struct {
	cfg     *config.APIConfig
	keys    *keyring
	limiter *rateLimiter
}

func NewHTTPAuth(cfg *config.APIConfig) *HTTPAuth {
	return &HTTPAuth{cfg: cfg, keys: newKeyring(cfg.Auth), limiter: newRateLimiter(cfg)}
}

// Require guards next with the key pair check for permission (skipped when
// permission is empty) and the rate limiter.
func (a *HTTPAuth) Require(permission string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.Auth.Enabled && permission != "" {
			apiKey := strings.TrimSpace(r.Header.Get(a.keys.headerAPIKey))
			extra := strings.TrimSpace(r.Header.Get(a.keys.headerExtra))
			if _, err := a.keys.authenticate(apiKey, extra, permission); err != nil {
				statusCode := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
		}

		if !a.limiter.allow(a.clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.keys.headerAPIKey)); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

func loggingMiddleware(logger *zerolog.Logger, next http.Handler) http.Handler {
	log := logger.With().Str("component", "http").Logger()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps service errors onto status codes.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotAvailable):
		writeError(w, http.StatusConflict, "Room not available for selected dates")
	case errors.Is(err, domain.ErrRoomInUse):
		writeError(w, http.StatusConflict, domain.ErrRoomInUse.Error())
	case errors.Is(err, report.ErrUnknownReport):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
