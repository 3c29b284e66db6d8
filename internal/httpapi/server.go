// Package httpapi serves the search index over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"ocrsearch/internal/index"
	"ocrsearch/internal/logger"
	"ocrsearch/internal/record"
	"ocrsearch/internal/search"
)

const shutdownTimeout = 10 * time.Second

// Store is the part of the index the API reads. *index.Index implements it.
type Store interface {
	Search(ctx context.Context, term string, limit int) ([]index.Hit, error)
	Documents(ctx context.Context) ([]index.Document, error)
	Document(ctx context.Context, pdfPath string) (index.Document, error)
}

// Server exposes the index.
type Server struct {
	store        Store
	defaultLimit int
	router       chi.Router
	log          zerolog.Logger
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Query     string                `json:"query"`
	Hits      []index.Hit           `json:"hits"`
	Documents []search.DocumentHits `json:"documents"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the router.
func NewServer(store Store, defaultLimit int) *Server {
	if defaultLimit <= 0 {
		defaultLimit = index.DefaultLimit
	}
	s := &Server{
		store:        store,
		defaultLimit: defaultLimit,
		log:          logger.WithComponent("httpapi"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/documents", s.handleDocuments)
		r.Get("/documents/*", s.handleDocument)
		r.Get("/search", s.handleSearch)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log := logger.WithRequestID(middleware.GetReqID(r.Context()))
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.Documents(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list documents")
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []index.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleDocument returns the record of the PDF whose path follows
// /api/documents/.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	pdfPath := chi.URLParam(r, "*")
	if pdfPath == "" {
		writeError(w, http.StatusBadRequest, "document path required")
		return
	}

	doc, err := s.store.Document(r.Context(), pdfPath)
	if errors.Is(err, index.ErrDocumentNotFound) && !strings.HasPrefix(pdfPath, "/") {
		doc, err = s.store.Document(r.Context(), "/"+pdfPath)
	}
	if errors.Is(err, index.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "document not indexed")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("file", pdfPath).Msg("Failed to look up document")
		writeError(w, http.StatusInternalServerError, "failed to look up document")
		return
	}

	source := doc.SourcePath
	if source == "" {
		source = record.BasePath(doc.PDFPath) + record.KindJSON.Ext()
	}
	rec, err := record.LoadSidecar(source)
	if err != nil {
		s.log.Error().Err(err).Str("file", source).Msg("Failed to load sidecar")
		writeError(w, http.StatusNotFound, "sidecar not readable")
		return
	}

	s.writeRecord(w, rec, source)
}

// writeRecord encodes rec before sending any header, so a record that fails
// validation gets a 500 instead of an empty 200.
func (s *Server) writeRecord(w http.ResponseWriter, rec *record.DocumentRecord, source string) {
	var buf bytes.Buffer
	if err := record.WriteJSON(&buf, rec); err != nil {
		s.log.Error().Err(err).Str("file", source).Msg("Failed to encode record")
		writeError(w, http.StatusInternalServerError, "record could not be encoded")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Warn().Err(err).Str("file", source).Msg("Failed to send record")
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	limit := s.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	hits, err := s.store.Search(r.Context(), q, limit)
	if err != nil {
		s.log.Error().Err(err).Str("term", q).Msg("Search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if hits == nil {
		hits = []index.Hit{}
	}

	groups := search.GroupHits(hits)
	if groups == nil {
		groups = []search.DocumentHits{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Hits: hits, Documents: groups})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
