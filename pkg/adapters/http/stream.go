package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// streamFrame is one SSE event before serialization.
type streamFrame struct {
	Event string
	Data  any
}

// streamHub fans engine events of the subscribed kinds into a single
// per-connection channel. Slow clients lose frames instead of blocking
// the engine.
type streamHub struct {
	frames chan streamFrame
	logger *slog.Logger
	unsubs []func()
}

func newStreamHub(logger *slog.Logger) *streamHub {
	return &streamHub{
		frames: make(chan streamFrame, 32),
		logger: logger,
	}
}

// push runs inside the engine's notification path and must not block.
func (h *streamHub) push(event string, data any) {
	select {
	case h.frames <- streamFrame{Event: event, Data: data}:
	default:
		h.logger.Warn("SSE: client buffer full, dropping frame", "event", event)
	}
}

// Close detaches every engine subscription. Frames already buffered
// stay readable; no new ones arrive.
func (h *streamHub) Close() {
	for _, unsub := range h.unsubs {
		unsub()
	}
	h.unsubs = nil
}

// streamKinds maps the ?watch= names to subscription installers. Event
// names on the wire are the singular forms.
var streamKinds = map[string]func(*avatar.Engine, *streamHub) func(){
	"ticks": func(eng *avatar.Engine, h *streamHub) func() {
		return eng.SubscribeTicks(func(evt domain.TickEvent) { h.push("tick", evt) })
	},
	"motions": func(eng *avatar.Engine, h *streamHub) func() {
		return eng.SubscribeMotions(func(evt domain.MotionEvent) { h.push("motion", evt) })
	},
	"blends": func(eng *avatar.Engine, h *streamHub) func() {
		return eng.SubscribeBlends(func(evt domain.BlendResult) { h.push("blend", evt) })
	},
	"selections": func(eng *avatar.Engine, h *streamHub) func() {
		return eng.SubscribeSelections(func(evt domain.Selection) { h.push("selection", evt) })
	},
	"emotions": func(eng *avatar.Engine, h *streamHub) func() {
		return eng.SubscribeEmotions(func(evt domain.EmotionChange) { h.push("emotion", evt) })
	},
	"reactions": func(eng *avatar.Engine, h *streamHub) func() {
		return eng.SubscribeReactions(func(evt domain.Reaction) { h.push("reaction", evt) })
	},
	"sequences": func(eng *avatar.Engine, h *streamHub) func() {
		return eng.SubscribeSequences(func(evt domain.SequenceEvent) { h.push("sequence", evt) })
	},
}

// streamKindOrder keeps subscription order stable when no filter is
// given.
var streamKindOrder = []string{
	"ticks", "motions", "blends", "selections", "emotions", "reactions", "sequences",
}

// parseWatchList resolves the comma-separated ?watch= filter. Empty
// subscribes to everything.
func parseWatchList(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return streamKindOrder, nil
	}
	seen := make(map[string]bool)
	var kinds []string
	for _, kind := range strings.Split(raw, ",") {
		kind = strings.TrimSpace(kind)
		if kind == "" || seen[kind] {
			continue
		}
		if _, ok := streamKinds[kind]; !ok {
			return nil, fmt.Errorf("unknown event kind %q", kind)
		}
		seen[kind] = true
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		return streamKindOrder, nil
	}
	return kinds, nil
}

func writeSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// SubscribeEvents handles the GET /events request (SSE). Without a
// ?character= it streams catalog change notices; with one it streams
// that character's engine events, optionally narrowed by ?watch=.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SSE: streaming not supported")
		return
	}

	character := r.URL.Query().Get("character")

	// Catalog hot reload (no character selected)
	if character == "" {
		if s.source == nil {
			http.Error(w, "Catalog watching is not configured", http.StatusNotImplemented)
			return
		}
		events, err := s.source.Watch(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
			return
		}
		s.logger.Info("SSE: subscribed to catalog changes")

		writeSSEHeaders(w)
		fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case id, ok := <-events:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: catalog\ndata: %s\n\n", id)
				flusher.Flush()
			}
		}
	}

	eng, ok := s.Hosts.Lookup(character)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown character: %s", character), http.StatusNotFound)
		return
	}

	kinds, err := parseWatchList(r.URL.Query().Get("watch"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hub := newStreamHub(s.logger)
	for _, kind := range kinds {
		hub.unsubs = append(hub.unsubs, streamKinds[kind](eng, hub))
	}
	defer hub.Close()

	s.logger.Info("SSE: subscribed to character events",
		"character", character, "kinds", strings.Join(kinds, ","))

	writeSSEHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", "character", character)
			return
		case frame := <-hub.frames:
			// Serialization happens here, outside the engine lock.
			payload, err := json.Marshal(frame.Data)
			if err != nil {
				s.logger.Error("SSE: frame marshal failed", "event", frame.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frame.Event, payload)
			flusher.Flush()
		}
	}
}
