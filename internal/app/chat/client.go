/*
Package chat contains the real-time core of the messaging server.

This file defines the Client struct, representing one live WebSocket
connection bound to an authenticated identity. It owns the connection's
read/write loops and its buffered outbound queue; every delivery to this
connection goes through the queue, never through a synchronous write, so a
stalled peer cannot block a producer.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aryankinha/chattingAPP/internal/pkg/errs"
	"github.com/aryankinha/chattingAPP/internal/pkg/logx"
	"github.com/aryankinha/chattingAPP/internal/pkg/metrics"
	"github.com/aryankinha/chattingAPP/internal/pkg/randx"
)

const (
	// timeout for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for a Pong before treating the connection as dead.
	// A silent network drop therefore surfaces as a disconnect within pongWait.
	pongWait = 60 * time.Second

	// frequency of server Ping messages.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxMessageSize = 8192

	// MaxContentBytes caps the size of message body text.
	MaxContentBytes = 5000

	// outboundQueueSize is the per-connection delivery buffer. When it
	// fills, further deliveries to this connection are dropped and the
	// connection is opportunistically unregistered.
	outboundQueueSize = 256

	// WsCloseCodeSessionKicked is the custom WebSocket close code
	// (4000-4999 range) signaling that a newer connection for the same
	// identity replaced this one.
	WsCloseCodeSessionKicked = 4001
)

var (
	errQueueFull   = errors.New("outbound queue full")
	errQueueClosed = errors.New("outbound queue closed")
)

// Client represents one live connection and its identity binding.
type Client struct {
	// hub coordinates presence, subscriptions, and fan-out.
	hub *Hub

	// conn is the underlying WebSocket connection.
	conn *websocket.Conn

	// identity is the authenticated user identity bound at admission.
	identity string

	// connID uniquely identifies this physical connection, distinguishing
	// it from a superseding connection of the same identity.
	connID string

	// send buffers outbound frames awaiting the write loop.
	send chan []byte

	// sendMu guards sendClosed and closeFrame so enqueue never races the
	// channel close.
	sendMu     sync.Mutex
	sendClosed bool

	// closeFrame, when set before the queue closes, is the close message
	// the write loop sends instead of a plain close. Only the write loop
	// touches the connection, so a kick never races an in-flight write.
	closeFrame []byte

	// logger carries connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an admitted connection.
func NewClient(hub *Hub, wsConn *websocket.Conn, identity string) *Client {
	connID := randx.ConnectionID()

	clientLogger := logx.Logger().With().
		Str("identity", identity).
		Str("conn_id", connID).
		Logger()

	return &Client{
		hub:      hub,
		conn:     wsConn,
		identity: identity,
		connID:   connID,
		send:     make(chan []byte, outboundQueueSize),
		logger:   clientLogger,
	}
}

// Identity returns the identity bound to this connection.
func (c *Client) Identity() string { return c.identity }

// ConnID returns the unique identifier of this physical connection.
func (c *Client) ConnID() string { return c.connID }

// enqueue places a marshaled frame on the outbound queue without blocking.
func (c *Client) enqueue(data []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return errQueueClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client outbound queue full, dropping delivery")
		metrics.IncDeliveryDropped()
		return errQueueFull
	}
}

// closeSend closes the outbound queue exactly once, ending the write loop.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

// SendEvent marshals and queues one event for this connection.
func (c *Client) SendEvent(eventType EventType, payload any) error {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to build event")
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to marshal event")
		return err
	}

	if err := c.enqueue(data); err != nil {
		return err
	}

	metrics.IncOutboundEvent(string(eventType))
	return nil
}

// SendError reports a failure back to this connection only.
func (c *Client) SendError(err error) {
	customErr := errs.AsCustom(err)

	sendErr := c.SendEvent(EventError, ErrorPayload{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
	if sendErr != nil {
		c.logger.Warn().Err(sendErr).Msg("Failed to queue error event")
	}
}

// ReadPump reads frames from the connection until it closes, dispatching
// inbound events to the hub. It owns the disconnect path: when the loop
// exits, for any reason, the connection is deregistered.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInboundEvent(frame)
	}
}

// cleanupOnDisconnect runs the deregistration path when ReadPump ends.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.hub.Disconnect(context.Background(), c)
	c.closeSend()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundEvent parses one inbound frame and dispatches it.
func (c *Client) processInboundEvent(frame []byte) {
	var event Event
	if err := json.Unmarshal(frame, &event); err != nil {
		c.logger.Warn().Err(err).Bytes("frame", frame).Msg("Client sent invalid JSON")
		return
	}

	metrics.IncInboundEvent(string(event.Type))
	ctx := context.Background()

	switch event.Type {
	case EventJoinRoom:
		c.handleJoinRoom(ctx, event.Payload)

	case EventSendMessage:
		c.handleSendMessage(ctx, event.Payload)

	case EventRetractMessage:
		c.handleRetractMessage(ctx, event.Payload)

	case EventRequestOnlineUsers:
		c.hub.SendOnlineSnapshot(c)

	case EventSendFriendRequest:
		c.handleSendFriendRequest(ctx, event.Payload)

	case EventAcceptFriendReq:
		c.handleAcceptFriendRequest(ctx, event.Payload)

	default:
		c.logger.Warn().Str("event_type", string(event.Type)).Msg("Client sent unsupported event type")
	}
}

func (c *Client) handleJoinRoom(ctx context.Context, payload json.RawMessage) {
	var join JoinRoomPayload
	if err := json.Unmarshal(payload, &join); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid join-room payload")
		return
	}

	if err := c.hub.JoinRoom(ctx, c, join.RoomID); err != nil {
		c.SendError(err)
	}
}

func (c *Client) handleSendMessage(ctx context.Context, payload json.RawMessage) {
	var send SendMessagePayload
	if err := json.Unmarshal(payload, &send); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid send-message payload")
		return
	}

	if len(send.Text) > MaxContentBytes {
		c.SendError(errs.NewError(errs.ErrMessageContentTooLong))
		return
	}

	// The sender observes its own message through the room broadcast like
	// every other subscriber, so the result is discarded here.
	if _, err := c.hub.Send(ctx, c.identity, send.RoomID, send.Text, send.Attachment); err != nil {
		c.SendError(err)
	}
}

func (c *Client) handleRetractMessage(ctx context.Context, payload json.RawMessage) {
	var retract RetractMessagePayload
	if err := json.Unmarshal(payload, &retract); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid retract-message payload")
		return
	}

	if err := c.hub.Retract(ctx, c.identity, retract.MessageID); err != nil {
		c.SendError(err)
	}
}

func (c *Client) handleSendFriendRequest(ctx context.Context, payload json.RawMessage) {
	var request SendFriendRequestPayload
	if err := json.Unmarshal(payload, &request); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid send-friend-request payload")
		return
	}

	if err := c.hub.SendFriendRequest(ctx, c.identity, request.RecipientID); err != nil {
		c.SendError(err)
	}
}

func (c *Client) handleAcceptFriendRequest(ctx context.Context, payload json.RawMessage) {
	var accept AcceptFriendRequestPayload
	if err := json.Unmarshal(payload, &accept); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid accept-friend-request payload")
		return
	}

	if err := c.hub.AcceptFriendRequest(ctx, c.identity, accept.RequestID); err != nil {
		c.SendError(err)
	}
}

// WritePump writes queued frames to the connection and keeps the heartbeat
// alive. It terminates when the outbound queue closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame pulled from the queue. Returns false
// when the write loop should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		c.sendMu.Lock()
		frame := c.closeFrame
		c.sendMu.Unlock()

		if err := c.conn.WriteMessage(websocket.CloseMessage, frame); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePing sends the heartbeat Ping. Returns false on write failure.
func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// Kick closes the connection with the session-replaced close code. Used
// when a newer connection for the same identity supersedes this one. The
// close frame travels through the outbound queue so it cannot collide with
// a write already in flight on the write loop.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionKicked).
		Str("reason", reason).
		Msg("Kicking superseded connection.")

	c.sendMu.Lock()
	if !c.sendClosed {
		c.closeFrame = websocket.FormatCloseMessage(WsCloseCodeSessionKicked, reason)
	}
	c.sendMu.Unlock()

	c.closeSend()
}
