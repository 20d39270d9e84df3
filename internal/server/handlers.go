package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scrypster/rolodex/internal/connections"
	"github.com/scrypster/rolodex/internal/conversation"
	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
)

// maxMessageBytes caps request bodies and websocket frames.
const maxMessageBytes = 16 << 10

// MessageRequest is the body of POST /api/messages and of each websocket
// text frame.
type MessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] failed to encode JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, statusCode int, message, code string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// messageStatus maps engine input errors to client errors.
func messageStatus(err error) (int, string) {
	switch {
	case errors.Is(err, conversation.ErrMissingUser):
		return http.StatusBadRequest, "MISSING_USER"
	case errors.Is(err, conversation.ErrEmptyMessage):
		return http.StatusBadRequest, "EMPTY_MESSAGE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	reply, err := s.engine.Handle(r.Context(), req.UserID, req.Text)
	if err != nil {
		status, code := messageStatus(err)
		respondError(w, status, err.Error(), code)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, conversation.ErrMissingUser.Error(), "MISSING_USER")
		return
	}
	s.engine.Reset(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := connections.Check(ctx, s.store); err != nil {
		log.Printf("[server] health check failed: %v", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": Version})
}

// handleChat upgrades to a websocket and answers each text frame. A frame
// without user_id falls back to the user_id query parameter, then to an ID
// minted for the connection.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{ //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		log.Printf("[server] websocket upgrade failed: %v", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }() //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	conn.SetReadLimit(maxMessageBytes)

	defaultUser := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if defaultUser == "" {
		defaultUser = "ws-" + uuid.NewString()
	}

	ctx := r.Context()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText { //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
			continue
		}

		out := s.chatReply(ctx, defaultUser, data)
		payload, err := json.Marshal(out)
		if err != nil {
			log.Printf("[server] failed to encode websocket reply: %v", err)
			return
		}

		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = conn.Write(writeCtx, websocket.MessageText, payload) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		cancel()
		if err != nil {
			log.Printf("[server] websocket write failed: %v", err)
			return
		}
	}
}

func (s *Server) chatReply(ctx context.Context, defaultUser string, data []byte) interface{} {
	var req MessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		// Plain text frames are treated as the message itself.
		req.Text = string(data)
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = defaultUser
	}

	reply, err := s.engine.Handle(ctx, req.UserID, req.Text)
	if err != nil {
		_, code := messageStatus(err)
		return ErrorResponse{Error: err.Error(), Code: code}
	}
	return reply
}
