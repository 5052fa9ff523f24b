// Package httpapi exposes the processing service over HTTP: video upload,
// progress polling and streaming, the processed-video library, and artifact
// downloads.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dkenzhe/videosub/internal/artifacts"
	"github.com/dkenzhe/videosub/internal/jobs"
	"github.com/dkenzhe/videosub/internal/persistence"
	"github.com/dkenzhe/videosub/internal/status"
)

// videoLister is the read side of the processed-video index.
type videoLister interface {
	ListProcessed(ctx context.Context) ([]persistence.ProcessedVideo, error)
}

type Server struct {
	runner    *jobs.Runner
	tracker   *status.Tracker
	layout    artifacts.Layout
	uploadDir string
	store     videoLister

	maxUploadBytes int64

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

// WithVideoStore enables the GET /api/videos listing.
func WithVideoStore(store videoLister) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithMaxUploadBytes caps the accepted video size.
func WithMaxUploadBytes(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.maxUploadBytes = limit
		}
	}
}

func NewServer(
	runner *jobs.Runner,
	tracker *status.Tracker,
	layout artifacts.Layout,
	uploadDir string,
	opts ...Option,
) *Server {
	s := &Server{
		runner:         runner,
		tracker:        tracker,
		layout:         layout,
		uploadDir:      uploadDir,
		maxUploadBytes: 2 << 30,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/upload", s.handleUpload)
	s.mux.HandleFunc("/api/progress", s.handleProgress)
	s.mux.HandleFunc("/api/progress/stream", s.handleProgressStream)
	s.mux.HandleFunc("/api/videos", s.handleListVideos)
	s.mux.HandleFunc("/api/jobs/current", s.handleCurrentJob)
	s.mux.HandleFunc("/api/files/", s.handleFiles)
}
