// Package server exposes a Studio over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/studio"
)

// maxUpload caps raster uploads.
const maxUpload = 25 << 20

// Server serves one studio session.
type Server struct {
	studio *studio.Studio
	logger *log.Logger
}

// New returns a server for st.
func New(st *studio.Studio, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{studio: st, logger: logger}
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/design", func(r chi.Router) {
		r.Get("/", s.getDesign)
		r.Put("/", s.putDesign)
		r.Put("/base", s.putBase)
		r.Put("/logo", s.putLogo)
		r.Delete("/logo", s.deleteLogo)
	})
	r.Get("/preview", s.getPreview)
	r.Get("/download", s.getDownload)

	r.Get("/draft", s.getDraft)
	r.Put("/draft", s.putDraft)
	r.Get("/recipients", s.getRecipients)

	r.Route("/dispatch", func(r chi.Router) {
		r.Get("/", s.getDispatch)
		r.Post("/start", s.postStart)
		r.Post("/advance", s.postAdvance)
		r.Post("/abort", s.postAbort)
	})

	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/", s.getCampaigns)
		r.Post("/new", s.postNewCampaign)
		r.Get("/{id}", s.getCampaign)
		r.Post("/{id}/recall", s.postRecall)
	})

	r.Route("/generate", func(r chi.Router) {
		r.Post("/copy", s.postGenerateCopy)
		r.Post("/image", s.postGenerateImage)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSettings,
		errors.ErrCodeInvalidChannel, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeMissingContact, errors.ErrCodeDecode, errors.ErrCodeCanvas:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConflict, errors.ErrCodeInvalidState, errors.ErrCodeNotDispatching:
		return http.StatusConflict
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeAIService, errors.ErrCodeNetwork, errors.ErrCodeNavigate:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeStorage:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string       `json:"error"`
	Code  errors.Code  `json:"code,omitempty"`
	Toast errors.Toast `json:"toast"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  code,
		Toast: errors.ToastFor(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
