package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/engine"
)

// wsWriteTimeout bounds one outbound frame.
const wsWriteTimeout = 10 * time.Second

// wsInbound is the envelope for every client message.
type wsInbound struct {
	Type     string                 `json:"type"`
	State    *domain.EconomyState   `json:"state,omitempty"`
	Events   []domain.EconomicEvent `json:"events,omitempty"`
	Event    *domain.EconomicEvent  `json:"event,omitempty"`
	Personas map[string]float64     `json:"personas,omitempty"`
}

// handleWebSocket speaks the same tick protocol as the REST surface over a
// persistent connection. One engine pass at a time; the engine's own mutex
// serializes ticks across connections.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// CORS is handled at the router; the transport accepts any origin.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	conn.SetReadLimit(maxBodyBytes)
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("WebSocket connected")

	ctx := r.Context()
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				conn.Close(websocket.StatusNormalClosure, "")
			}
			return
		}
		if msgType != websocket.MessageText {
			s.wsSend(ctx, conn, map[string]interface{}{
				"type":  "error",
				"error": "binary frames are not supported",
			})
			continue
		}

		var msg wsInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.wsSend(ctx, conn, map[string]interface{}{
				"type":  "error",
				"error": "malformed JSON: " + err.Error(),
			})
			continue
		}
		s.wsDispatch(ctx, conn, msg)
	}
}

func (s *Server) wsDispatch(ctx context.Context, conn *websocket.Conn, msg wsInbound) {
	switch msg.Type {
	case "tick":
		if len(msg.Personas) > 0 {
			s.engine.RecordPersonas(msg.Personas)
		}
		result, err := s.engine.ProcessTick(msg.State, msg.Events)
		if err != nil {
			var verr *engine.ValidationError
			if errors.As(err, &verr) {
				s.wsSend(ctx, conn, map[string]interface{}{
					"type":       "validation_error",
					"validation": verr.Result,
				})
				return
			}
			s.wsSend(ctx, conn, map[string]interface{}{"type": "error", "error": err.Error()})
			return
		}
		for _, warning := range result.ValidationWarnings {
			s.wsSend(ctx, conn, map[string]interface{}{
				"type":    "validation_warning",
				"warning": warning,
			})
		}
		s.wsSend(ctx, conn, map[string]interface{}{
			"type":        "tick_result",
			"tick":        result.Tick,
			"health":      result.Health,
			"adjustments": result.Adjustments,
			"alerts":      result.Alerts,
		})

	case "event":
		if msg.Event == nil {
			s.wsSend(ctx, conn, map[string]interface{}{"type": "error", "error": "event payload missing"})
			return
		}
		if err := s.engine.BufferEvent(*msg.Event); err != nil {
			s.wsSend(ctx, conn, map[string]interface{}{"type": "error", "error": err.Error()})
			return
		}

	case "health":
		status := s.engine.Status()
		s.wsSend(ctx, conn, map[string]interface{}{
			"type":        "health_result",
			"health":      status.Health,
			"tick":        status.Tick,
			"mode":        status.Mode,
			"activePlans": status.ActivePlans,
			"uptime":      status.Uptime,
		})

	case "diagnose":
		result, err := s.engine.Diagnose(msg.State, msg.Events)
		if err != nil {
			var verr *engine.ValidationError
			if errors.As(err, &verr) {
				s.wsSend(ctx, conn, map[string]interface{}{
					"type":       "validation_error",
					"validation": verr.Result,
				})
				return
			}
			s.wsSend(ctx, conn, map[string]interface{}{"type": "error", "error": err.Error()})
			return
		}
		s.wsSend(ctx, conn, map[string]interface{}{
			"type":      "health_result",
			"health":    result.Health,
			"diagnoses": result.Diagnoses,
		})

	default:
		s.wsSend(ctx, conn, map[string]interface{}{
			"type":  "error",
			"error": "unknown message type " + msg.Type,
		})
	}
}

func (s *Server) wsSend(ctx context.Context, conn *websocket.Conn, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode WebSocket payload")
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		s.log.Debug().Err(err).Msg("WebSocket write failed")
	}
}
