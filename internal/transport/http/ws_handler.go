package http

import (
	"encoding/json"
	"net/http"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// writeWait bounds a single connection write so one stalled client
// cannot back up the broadcaster.
const writeWait = 10 * time.Second

// WSHandler wires participant and operator websockets into the quiz
// service.
type WSHandler struct {
	service    *app.Service
	adminToken string
	upgrader   websocket.Upgrader
}

func NewWSHandler(service *app.Service, adminToken string) *WSHandler {
	return &WSHandler{
		service:    service,
		adminToken: adminToken,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

type lifelinePayload struct {
	Kind domain.Lifeline `json:"kind"`
}

type commandPayload struct {
	Action string `json:"action"`
}

type lifelinesPayload struct {
	Lifelines map[domain.Lifeline]bool `json:"lifelines"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS handles participant connections. Identity arrives as query
// parameters; the connection registers before it may act.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	displayName := r.URL.Query().Get("name")
	email := r.URL.Query().Get("email")
	if displayName == "" || email == "" {
		http.Error(w, "missing name or email", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	participant, err := h.service.Register(r.Context(), email, displayName)
	if err != nil {
		_ = writeMessage(conn, outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	sub, cancel := h.service.Hub().Subscribe(participant.ID, false)
	defer cancel()

	h.runConnection(conn, sub, func(send func(outboundMessage)) {
		send(outboundMessage{Type: "registered", Payload: participant})
		send(outboundMessage{Type: "snapshot", Payload: h.service.Snapshot(participant.ID, false)})
	}, func(inbound inboundMessage, send func(outboundMessage)) {
		h.handleParticipantMessage(participant.ID, inbound, send)
	})
}

// ServeOperatorWS handles the operator event feed and live commands.
// The admin token is a pre-validated capability; here only equality is
// checked.
func (h *WSHandler) ServeOperatorWS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") != h.adminToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("operator ws upgrade failed")
		return
	}
	defer conn.Close()

	sub, cancel := h.service.Hub().Subscribe("", true)
	defer cancel()

	h.runConnection(conn, sub, func(send func(outboundMessage)) {
		send(outboundMessage{Type: "snapshot", Payload: h.service.Snapshot("", true)})
		send(outboundMessage{Type: "recent", Payload: h.service.RecentEvents()})
	}, h.handleOperatorMessage)
}

// runConnection owns the per-connection goroutines: a single writer
// draining the send channel, a forwarder pumping hub events into it,
// and the inbound read loop.
func (h *WSHandler) runConnection(
	conn *websocket.Conn,
	sub *app.Subscriber,
	greet func(func(outboundMessage)),
	handle func(inboundMessage, func(outboundMessage)),
) {
	send := make(chan outboundMessage, 32)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	trySend := sendOrDone(send, writerDone)

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := writeMessage(conn, msg); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					// Subscription replaced by a newer connection; unblock the reader.
					_ = conn.Close()
					return
				}
				select {
				case send <- outboundMessage{Type: ev.Type, Payload: ev.Payload}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	greet(trySend)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		handle(inbound, trySend)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handleParticipantMessage(participantID string, inbound inboundMessage, send func(outboundMessage)) {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
			return
		}
		if err := h.service.SubmitAnswer(participantID, payload.QuestionID, payload.Value); err != nil {
			send(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	case "lifeline":
		var payload lifelinePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid lifeline payload"}})
			return
		}
		if err := h.service.UseLifeline(participantID, payload.Kind); err != nil {
			send(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	case "snapshot":
		send(outboundMessage{Type: "snapshot", Payload: h.service.Snapshot(participantID, false)})
	case "register":
		send(outboundMessage{Type: "error", Payload: errorPayload{Message: domain.ErrAlreadyRegistered.Error()}})
	default:
		send(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
	}
}

func (h *WSHandler) handleOperatorMessage(inbound inboundMessage, send func(outboundMessage)) {
	switch inbound.Type {
	case "command":
		var payload commandPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid command payload"}})
			return
		}
		if err := h.runCommand(payload.Action, send); err != nil {
			send(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	case "lifelines":
		var payload lifelinesPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid lifelines payload"}})
			return
		}
		h.service.SetLifelines(payload.Lifelines)
	case "snapshot":
		send(outboundMessage{Type: "snapshot", Payload: h.service.Snapshot("", true)})
	default:
		send(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
	}
}

func (h *WSHandler) runCommand(action string, send func(outboundMessage)) error {
	switch action {
	case "start":
		return h.service.Start()
	case "next":
		res, err := h.service.Next()
		if err != nil {
			return err
		}
		send(outboundMessage{Type: "nextResult", Payload: res})
		return nil
	case "pause":
		_, err := h.service.TogglePause()
		return err
	case "reveal":
		already, err := h.service.Reveal()
		if err != nil {
			return err
		}
		if already {
			send(outboundMessage{Type: "error", Payload: errorPayload{Message: "already revealed"}})
		}
		return nil
	case "reset":
		h.service.Reset()
		return nil
	case "showLeaderboard":
		h.service.ShowLeaderboard()
		return nil
	case "hideLeaderboard":
		h.service.HideLeaderboard()
		return nil
	default:
		return &domain.ValidationError{Detail: "unknown action " + action}
	}
}

// sendOrDone queues a message for the writer, or discards it once the
// writer has exited, so handlers never block on a dead connection.
func sendOrDone(send chan<- outboundMessage, writerDone <-chan struct{}) func(outboundMessage) {
	return func(msg outboundMessage) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
}

func writeMessage(conn *websocket.Conn, msg outboundMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
