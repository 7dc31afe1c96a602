// Package shell serves the bridge to desktop shells over a WebSocket.
package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/matheus3301/botpanel/internal/bridge"
	"go.uber.org/zap"
)

// Dispatcher is the part of the bridge a shell connection uses.
type Dispatcher interface {
	Call(ctx context.Context, name string, args json.RawMessage) (any, error)
	Attach() (<-chan bridge.Event, func())
}

// Server is the HTTP server hosting /ws and /healthz.
type Server struct {
	addr       string
	dispatcher Dispatcher
	logger     *zap.Logger
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
}

// NewServer builds the router. An empty addr disables Start.
func NewServer(addr string, d Dispatcher, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{addr: addr, dispatcher: d, logger: logger}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/ws", s.handleWS)
	s.engine = engine
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	if s.addr == "" {
		s.logger.Info("websocket transport disabled")
		return nil
	}
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = lis
	s.httpServer = &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		s.logger.Info("websocket server starting", zap.String("addr", lis.Addr().String()))
		if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("websocket server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, empty when not listening.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down. Hijacked WebSocket connections are not
// tracked by Shutdown and end when their observer is detached.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("websocket server stopping")
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// checkOrigin admits browsers only from loopback pages. Local file pages and
// non-browser clients send no usable origin and are admitted too.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme == "file" {
		return true
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.logger.Info("shell connected", zap.String("remote", conn.RemoteAddr().String()))
	s.serve(conn)
	s.logger.Info("shell disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

func (s *Server) serve(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	events, detach := s.dispatcher.Attach()
	cl := &client{
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		dispatcher: s.dispatcher,
		logger:     s.logger,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		cl.writePump(ctx, events)
	}()
	cl.readPump(ctx)
	cancel()
	detach()
	<-done
}
