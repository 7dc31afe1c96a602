package shell

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matheus3301/botpanel/internal/bridge"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

// client is one attached shell connection.
type client struct {
	conn       *websocket.Conn
	send       chan []byte
	dispatcher Dispatcher
	logger     *zap.Logger
}

// readPump decodes command frames until the connection fails. Each command
// runs in its own goroutine and answers through send.
func (c *client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warn("malformed frame", zap.Error(err))
			continue
		}
		if frame.Type != TypeCommand {
			c.reply(ctx, Frame{Type: TypeResponse, ID: frame.ID, Error: "unsupported frame type " + frame.Type})
			continue
		}
		go c.dispatch(ctx, frame)
	}
}

func (c *client) dispatch(ctx context.Context, cmd Frame) {
	resp := Frame{Type: TypeResponse, ID: cmd.ID}
	result, err := c.dispatcher.Call(ctx, cmd.Name, cmd.Args)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Result = result
	}
	c.reply(ctx, resp)
}

func (c *client) reply(ctx context.Context, f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		c.logger.Warn("encode frame", zap.String("type", f.Type), zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	case <-ctx.Done():
	default:
		c.logger.Warn("shell send buffer full, frame dropped", zap.String("type", f.Type))
	}
}

// writePump owns all writes on the connection. It ends when ctx is done or
// the observer is replaced.
func (c *client) writePump(ctx context.Context, events <-chan bridge.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		case evt, ok := <-events:
			if !ok {
				_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by a newer observer"))
				return
			}
			data, err := json.Marshal(Frame{
				Type:      TypeEvent,
				Name:      evt.Name,
				Payload:   evt.Payload,
				Timestamp: evt.Timestamp.UnixMilli(),
			})
			if err != nil {
				c.logger.Warn("encode event", zap.String("event", evt.Name), zap.Error(err))
				continue
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}
