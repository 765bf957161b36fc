// Package httpapi exposes the chat dispatcher over HTTP: a JSON webhook
// for single messages and a websocket for interactive chat.
package httpapi

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"

	"rtmbot/internal/observability"
)

// Handler produces the reply to one chat message.
type Handler interface {
	Handle(ctx context.Context, userID, text string) (string, error)
}

// Options configures a Server.
type Options struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics

	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer

	// Token, when set, is required as a bearer token (or the token query
	// parameter for websockets) on the chat endpoints.
	Token string
}

type Server struct {
	handler  Handler
	logger   *slog.Logger
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	token    string
	upgrader websocket.Upgrader
	ids      *idSource
}

func New(h Handler, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		handler:  h,
		logger:   logger,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		token:    opts.Token,
		ids:      &idSource{entropy: ulid.Monotonic(rand.Reader, 0)},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler(s.gatherer).ServeHTTP(w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/v1/messages", s.handleMessage)
		r.Get("/v1/chat/ws", s.handleChatWS)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if got == "" {
			got = r.URL.Query().Get("token")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MessageRequest is the body of POST /v1/messages.
type MessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// MessageResponse carries the reply. An empty reply means the bot stays
// silent.
type MessageResponse struct {
	ID    string `json:"id"`
	Reply string `json:"reply"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			respondError(w, http.StatusBadRequest, "invalid_request", "request body is required")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}

	id := s.ids.next()
	reply, err := s.handler.Handle(r.Context(), req.UserID, req.Text)
	if err != nil {
		s.logger.Error("message failed", "message_id", id, "user", req.UserID, "error", err)
		respondError(w, http.StatusServiceUnavailable, "state_unavailable", "user state could not be read or written")
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{ID: id, Reply: reply})
}

// ChatMessage is a websocket frame in either direction.
type ChatMessage struct {
	ID    string `json:"id,omitempty"`
	Text  string `json:"text,omitempty"`
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

const (
	wsReadTimeout  = 10 * time.Minute
	wsWriteTimeout = 10 * time.Second
)

// handleChatWS serves one user per connection. Messages are handled one
// at a time in arrival order; empty replies are not sent.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "query parameter user_id is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	logger := s.logger.With("conn", uuid.NewString(), "user", userID)
	logger.Info("chat connected")
	s.metrics.ConnOpened()
	defer func() {
		s.metrics.ConnClosed()
		logger.Info("chat disconnected")
	}()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		var in ChatMessage
		if err := json.Unmarshal(data, &in); err != nil {
			// Plain text frames are accepted as the message itself.
			in = ChatMessage{Text: string(data)}
		}

		out := ChatMessage{ID: s.ids.next()}
		reply, err := s.handler.Handle(r.Context(), userID, in.Text)
		switch {
		case err != nil:
			logger.Error("message failed", "message_id", out.ID, "error", err)
			out.Error = "user state could not be read or written"
		case reply == "":
			continue
		default:
			out.Reply = reply
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(out); err != nil {
			logger.Warn("chat write failed", "error", err)
			return
		}
	}
}

// idSource issues monotonic ULIDs for messages.
type idSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (s *idSource) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), s.entropy)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
