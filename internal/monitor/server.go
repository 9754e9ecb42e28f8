// ABOUTME: WebSocket monitor server pushing mixer status and accepting commands
// ABOUTME: Each monitor says hello, then receives status pushes and command results
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sciaudio/sciaudio/internal/protocol"
	"github.com/sciaudio/sciaudio/internal/version"
)

const (
	// DefaultPort is where the monitor listens unless configured otherwise
	DefaultPort = 8928

	// Path is the websocket endpoint
	Path = "/sciaudio"

	defaultInterval = 500 * time.Millisecond
	writeDeadline   = 10 * time.Second
	helloTimeout    = 5 * time.Second
)

// Handler connects the server to the engine. Execute may block until the
// engine goroutine has run the command.
type Handler interface {
	Status() protocol.Status
	Execute(cmd protocol.Command) protocol.Result
}

// Config holds server settings
type Config struct {
	// Addr is the listen address, ":8928" by default
	Addr string
	// Name identifies this engine to monitors
	Name string
	// Interval between status pushes
	Interval time.Duration
}

// ClientInfo describes a connected monitor
type ClientInfo struct {
	ID   string
	Name string
	Addr string
}

type client struct {
	info     ClientInfo
	conn     *websocket.Conn
	sendChan chan protocol.Message
}

// Server is the monitor endpoint
type Server struct {
	config    Config
	sessionID string
	handler   Handler

	upgrader websocket.Upgrader
	listener net.Listener

	clients   map[string]*client
	clientsMu sync.RWMutex
	wg        sync.WaitGroup
}

// NewServer creates a monitor server
func NewServer(config Config, handler Handler) *Server {
	if config.Addr == "" {
		config.Addr = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.Name == "" {
		config.Name = version.Product
	}
	if config.Interval <= 0 {
		config.Interval = defaultInterval
	}

	return &Server{
		config:    config,
		sessionID: uuid.New().String(),
		handler:   handler,
		upgrader: websocket.Upgrader{
			// monitors are local tools
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Listen binds the listen address. Serve calls it when needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// Port returns the bound TCP port, or 0 before Listen
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// SessionID identifies this engine run
func (s *Server) SessionID() string {
	return s.sessionID
}

// Serve accepts monitors and pushes status until ctx is cancelled
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWebSocket)
	httpServer := &http.Server{Handler: mux}

	log.Printf("Monitor listening on %s%s", s.Addr(), Path)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(s.listener); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("monitor server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.broadcastLoop(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Monitor shutdown error: %v", err)
		}
		s.closeClients()
		return nil
	})

	err := g.Wait()
	s.wg.Wait()
	log.Printf("Monitor stopped")
	return err
}

// Clients returns the connected monitors
func (s *Server) Clients() []ClientInfo {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	out := make([]ClientInfo, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c.info)
	}
	return out
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.clientsMu.RLock()
			if len(s.clients) == 0 {
				s.clientsMu.RUnlock()
				continue
			}
			msg := protocol.Message{Type: protocol.TypeStatus, Payload: s.handler.Status()}
			for _, c := range s.clients {
				s.trySend(c, msg)
			}
			s.clientsMu.RUnlock()
		case <-ctx.Done():
			return
		}
	}
}

// trySend queues msg, dropping it for a monitor that has fallen behind
func (s *Server) trySend(c *client, msg protocol.Message) {
	select {
	case c.sendChan <- msg:
	default:
		log.Debugf("Monitor %s is slow, dropping %s", c.info.Name, msg.Type)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New monitor connection from %s", r.RemoteAddr)
	s.handleConnection(conn, r.RemoteAddr)
}

func (s *Server) handleConnection(conn *websocket.Conn, remote string) {
	defer conn.Close()

	hello, err := readHello(conn)
	if err != nil {
		log.Printf("Monitor handshake failed: %v", err)
		return
	}

	c := &client{
		info:     ClientInfo{ID: hello.ClientID, Name: hello.Name, Addr: remote},
		conn:     conn,
		sendChan: make(chan protocol.Message, 16),
	}

	s.clientsMu.Lock()
	if _, exists := s.clients[c.info.ID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Monitor ID %s already connected, rejecting duplicate", c.info.ID)
		return
	}
	s.clients[c.info.ID] = c
	s.clientsMu.Unlock()

	log.Printf("Monitor hello: %s (ID: %s)", hello.Name, hello.ClientID)

	defer func() {
		s.removeClient(c)
		log.Printf("Monitor disconnected: %s", c.info.Name)
	}()

	s.trySend(c, protocol.Message{Type: protocol.TypeWelcome, Payload: protocol.Welcome{
		SessionID: s.sessionID,
		Name:      s.config.Name,
		Product:   version.Product,
		Version:   version.Version,
	}})
	s.trySend(c, protocol.Message{Type: protocol.TypeStatus, Payload: s.handler.Status()})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		s.handleClientMessage(c, data)
	}
}

func readHello(conn *websocket.Conn) (protocol.Hello, error) {
	var hello protocol.Hello

	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return hello, fmt.Errorf("failed to read hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	msg, err := protocol.Decode(data)
	if err != nil {
		return hello, err
	}
	if msg.Type != protocol.TypeHello {
		return hello, fmt.Errorf("expected %s, got %s", protocol.TypeHello, msg.Type)
	}
	if err := protocol.DecodePayload(msg, &hello); err != nil {
		return hello, err
	}
	if hello.ClientID == "" || hello.Name == "" {
		return hello, fmt.Errorf("hello missing required fields")
	}
	return hello, nil
}

func (s *Server) handleClientMessage(c *client, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Printf("Monitor %s: %v", c.info.Name, err)
		return
	}

	switch msg.Type {
	case protocol.TypeCommand:
		var cmd protocol.Command
		if err := protocol.DecodePayload(msg, &cmd); err != nil {
			s.trySend(c, protocol.Message{Type: protocol.TypeResult, Payload: protocol.Result{Error: err.Error()}})
			return
		}
		log.Printf("Monitor %s: %s channel=%d resource=%d volume=%d", c.info.Name, cmd.Command, cmd.Channel, cmd.Resource, cmd.Volume)
		s.trySend(c, protocol.Message{Type: protocol.TypeResult, Payload: s.handler.Execute(cmd)})

	default:
		log.Printf("Monitor %s: unknown message type %s", c.info.Name, msg.Type)
	}
}

func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Failed to encode %s: %v", msg.Type, err)
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if existing, ok := s.clients[c.info.ID]; ok && existing == c {
		delete(s.clients, c.info.ID)
		close(c.sendChan)
	}
}

func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		c.conn.Close()
	}
}
