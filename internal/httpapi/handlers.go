package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dkenzhe/videosub/internal/jobs"
	"github.com/dkenzhe/videosub/pkg/log"
)

var allowedVideoExts = []string{".mp4", ".avi", ".mov", ".mkv"}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	src, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "video file is required")
		return
	}
	defer src.Close()

	filename := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(allowedVideoExts, ext) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type %q, expected one of %s", ext, strings.Join(allowedVideoExts, ", ")))
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	savedPath := filepath.Join(s.uploadDir, filename)
	if err := saveUpload(src, savedPath); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	job, err := s.runner.Submit(savedPath)
	if err != nil {
		if errors.Is(err, jobs.ErrJobActive) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info("Accepted %s as job %s", filename, job.ID)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job":      job,
		"filename": filename,
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "video library is not configured")
		return
	}
	videos, err := s.store.ListProcessed(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleCurrentJob(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		job, ok := s.runner.Current()
		if !ok {
			writeError(w, http.StatusNotFound, "no job has been submitted")
			return
		}
		writeJSON(w, http.StatusOK, job)
	case http.MethodDelete:
		if err := s.runner.Cancel(); err != nil {
			if errors.Is(err, jobs.ErrNoActiveJob) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"cancelled": true,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleFiles serves artifacts under the output root. The requested path is
// resolved relative to the root and must stay inside it.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if decoded, err := url.PathUnescape(rel); err == nil {
		rel = decoded
	}
	rel = path.Clean("/" + rel)[1:]
	if rel == "" || rel == "." {
		writeError(w, http.StatusBadRequest, "missing file path")
		return
	}

	root := s.layout.Root()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		writeError(w, http.StatusBadRequest, "invalid file path")
		return
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	http.ServeFile(w, r, full)
}

func saveUpload(src io.Reader, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("save upload: %w", err)
	}
	return out.Close()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
