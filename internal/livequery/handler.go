package livequery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
)

const (
	maxMessageBytes = 64 << 10

	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"

	MessageSubscribe   = "subscribe"
	MessageUnsubscribe = "unsubscribe"
)

// Message is one client-to-server message. An empty Type means subscribe.
type Message struct {
	Type  string `json:"type,omitempty" msgpack:"type,omitempty"`
	ID    string `json:"id" msgpack:"id"`
	Query string `json:"query,omitempty" msgpack:"query,omitempty"`
	Args  Args   `json:"args,omitempty" msgpack:"args,omitempty"`
}

// EncodeFrame serializes f for the given encoding. Msgpack output follows the
// json struct tags so both encodings carry the same field names.
func EncodeFrame(encoding string, f Frame) ([]byte, websocket.MessageType, error) {
	switch encoding {
	case "", EncodingJSON:
		data, err := json.Marshal(f)
		return data, websocket.MessageText, err
	case EncodingMsgpack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(f); err != nil {
			return nil, 0, err
		}
		return buf.Bytes(), websocket.MessageBinary, nil
	default:
		return nil, 0, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// DecodeMessage parses a client message; binary frames are msgpack, text frames JSON.
func DecodeMessage(typ websocket.MessageType, data []byte) (*Message, error) {
	var msg Message
	var err error
	if typ == websocket.MessageBinary {
		err = msgpack.Unmarshal(data, &msg)
	} else {
		err = json.Unmarshal(data, &msg)
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Handler serves live queries over a websocket
type Handler struct {
	hub *Hub
	log zerolog.Logger
}

// NewHandler creates a new live query websocket handler
func NewHandler(hub *Hub, log zerolog.Logger) *Handler {
	return &Handler{
		hub: hub,
		log: log.With().Str("handler", "livequery").Logger(),
	}
}

// ServeHTTP handles GET /api/live[?encoding=msgpack]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	encoding := r.URL.Query().Get("encoding")
	if encoding != "" && encoding != EncodingJSON && encoding != EncodingMsgpack {
		http.Error(w, "encoding must be json or msgpack", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxMessageBytes)

	ctx := r.Context()
	client := h.hub.Connect(ctx)
	defer client.Close()

	go h.writeLoop(conn, client, encoding)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				h.log.Debug().Err(err).Str("client", client.ID).Msg("Websocket read ended")
			}
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		}

		msg, err := DecodeMessage(typ, data)
		if err != nil {
			client.Send(ctx, Frame{Error: "invalid message"})
			continue
		}

		switch msg.Type {
		case "", MessageSubscribe:
			if err := client.Subscribe(msg.ID, msg.Query, msg.Args); err != nil {
				client.Send(ctx, Frame{ID: msg.ID, Error: err.Error()})
			}
		case MessageUnsubscribe:
			client.Unsubscribe(msg.ID)
		default:
			client.Send(ctx, Frame{ID: msg.ID, Error: "unknown message type: " + msg.Type})
		}
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, client *Client, encoding string) {
	for {
		select {
		case <-client.Done():
			return
		case frame := <-client.Frames():
			data, typ, err := EncodeFrame(encoding, frame)
			if err != nil {
				h.log.Error().Err(err).Str("id", frame.ID).Msg("Failed to encode frame")
				continue
			}
			if err := conn.Write(client.ctx, typ, data); err != nil {
				if !errors.Is(err, client.ctx.Err()) {
					h.log.Debug().Err(err).Str("client", client.ID).Msg("Websocket write failed")
				}
				client.Close()
				return
			}
		}
	}
}
