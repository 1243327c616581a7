package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"keyledger/engine/library"
	"keyledger/ops"
)

const RequestIDHeader = "X-Request-Id"

type ctxKey struct{}

// Server exposes the account operations over HTTP/JSON.
type Server struct {
	engine       *ops.Engine
	query        *ops.Query
	maxBodyBytes int64
}

func New(engine *ops.Engine, query *ops.Query, maxBodyBytes int64) *Server {
	return &Server{engine: engine, query: query, maxBodyBytes: maxBodyBytes}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.limitBody)

	r.Get("/v1/health", s.health)
	r.Route("/v1/account", func(api chi.Router) {
		api.Post("/request-create", s.requestCreate)
		api.Post("/send-create", s.sendCreate)
		api.Post("/add-key", s.addKey)
		api.Post("/add-data", s.addData)
		api.Post("/by-key", s.byKey)
		api.Get("/get", s.getAccount)
		api.Get("/list-accounts", s.listAccounts)
		api.Get("/list-accounts-detail", s.listAccountsDetail)
		api.Get("/list-keys", s.listKeys)
	})
	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		level := 4
		if ww.Status() >= 500 {
			level = 2
		}
		library.LogCLI(fmt.Sprintf("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), requestIDFrom(r.Context())), level)
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.maxBodyBytes > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: request body: %s", ops.ErrDecode, err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		library.LogCLI("writing response: "+err.Error(), 2)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	if status == http.StatusInternalServerError {
		library.LogCLI(err, 1)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: requestIDFrom(r.Context())})
}
