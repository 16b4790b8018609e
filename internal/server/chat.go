package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hoybrett99/StudyBuddy/internal/llm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type    string `json:"type"` // "ask" or "agent"
	Content string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type          string `json:"type"` // "response" or "error"
	Content       string `json:"content"`
	SourceCount   int    `json:"source_count,omitempty"`
	ToolCallCount int    `json:"tool_call_count,omitempty"`
}

// handleChat serves an interactive question loop over one WebSocket
// connection. Conversation history is kept per connection and fed to the
// agent on every turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	var history []llm.Message

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendChatError(conn, "invalid message format")
			continue
		}

		if req.Content == "" {
			s.sendChatError(conn, "content is required")
			continue
		}

		// The upgraded request's context is bounded by the router's timeout
		// middleware and expires while the connection is still open, so
		// every turn gets its own deadline instead.
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.RequestTimeoutSec)*time.Second)

		switch req.Type {
		case "ask":
			ans, err := s.answerer.Answer(ctx, req.Content, 0, nil)
			if err != nil {
				s.sendChatError(conn, err.Error())
				cancel()
				continue
			}
			s.countQuery(ctx)
			s.sendChatResponse(conn, chatResponse{
				Type:        "response",
				Content:     ans.Text,
				SourceCount: len(ans.Sources),
			})

		case "agent":
			if s.orchestrator == nil {
				s.sendChatError(conn, "agent is not configured")
				cancel()
				continue
			}
			res, err := s.orchestrator.Process(ctx, req.Content, history)
			if err != nil {
				s.sendChatError(conn, err.Error())
				cancel()
				continue
			}
			s.countQuery(ctx)
			history = append(history,
				llm.Message{Role: llm.RoleUser, Content: req.Content},
				llm.Message{Role: llm.RoleAssistant, Content: res.Answer},
			)
			s.sendChatResponse(conn, chatResponse{
				Type:          "response",
				Content:       res.Answer,
				SourceCount:   len(res.Sources),
				ToolCallCount: res.ToolCallCount,
			})

		default:
			s.sendChatError(conn, "unknown message type: "+req.Type)
		}
		cancel()
	}
}

func (s *Server) sendChatResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}

func (s *Server) sendChatError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(chatResponse{Type: "error", Content: message}); err != nil {
		log.Printf("server: websocket write error: %v", err)
	}
}
