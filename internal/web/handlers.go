package web

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cjeanneret/ScreenGo/internal/logic/capture"
)

// RunInfo describes the running capture for GET /config.
type RunInfo struct {
	RunID    string `json:"run_id"`
	Platform string `json:"platform"`
	UDID     string `json:"udid"`
	Network  bool   `json:"network"`
	Output   string `json:"output"`
	Rate     int    `json:"rate"`
	Join     bool   `json:"join"`
	Trigger  string `json:"trigger"`
}

// FrameStore keeps the most recent frame and announces new ones on the
// status stream. It is a capture.Observer.
type FrameStore struct {
	mu          sync.RWMutex
	last        capture.Frame
	has         bool
	broadcaster *StatusBroadcaster
}

// NewFrameStore creates an empty store announcing frames through b.
func NewFrameStore(b *StatusBroadcaster) *FrameStore {
	return &FrameStore{broadcaster: b}
}

// FrameSaved records f as the latest frame.
func (s *FrameStore) FrameSaved(f capture.Frame) {
	s.mu.Lock()
	s.last = f
	s.has = true
	s.mu.Unlock()

	if s.broadcaster != nil {
		s.broadcaster.BroadcastFrame(FrameEvent{
			Index:  f.Index,
			Path:   f.Path,
			Format: f.Format.String(),
			Size:   len(f.Data),
		})
	}
}

// Latest returns the most recent frame, if any.
func (s *FrameStore) Latest() (capture.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.has
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Frames      *FrameStore
	Info        RunInfo
	staticFS    fs.FS
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(broadcaster *StatusBroadcaster, frames *FrameStore, info RunInfo, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Frames:      frames,
		Info:        info,
		staticFS:    staticFS,
	}
}

// HandleConfig returns the run parameters as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Info)
}

// ServeIndex serves the preview page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleLatest serves the bytes of the most recent frame.
func (h *Handlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	f, ok := h.Frames.Latest()
	if !ok {
		http.Error(w, "no frame captured yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", f.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Frame-Index", strconv.Itoa(f.Index))
	w.Header().Set("Last-Modified", f.Time.UTC().Format(http.TimeFormat))
	w.Write(f.Data)
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
