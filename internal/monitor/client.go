// ABOUTME: WebSocket client used by sciaudio-monitor
// ABOUTME: Performs the hello handshake and routes status pushes and command results
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/internal/protocol"
	"github.com/sciaudio/sciaudio/internal/version"
)

// ClientConfig holds client settings
type ClientConfig struct {
	// Addr is host:port of the engine
	Addr string
	// Name identifies this monitor; ClientID is generated when empty
	Name     string
	ClientID string
}

// Client is a connected monitor
type Client struct {
	config  ClientConfig
	conn    *websocket.Conn
	welcome protocol.Welcome
	mu      sync.Mutex

	// Status receives every status push
	Status chan protocol.Status
	// Results receives command replies in order
	Results chan protocol.Result

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// Dial connects to an engine and completes the handshake
func Dial(ctx context.Context, config ClientConfig) (*Client, error) {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	if config.Name == "" {
		config.Name = "sciaudio-monitor"
	}

	u := url.URL{Scheme: "ws", Host: config.Addr, Path: Path}
	log.Printf("Connecting to %s", u.String())

	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		config:  config,
		conn:    conn,
		Status:  make(chan protocol.Status, 8),
		Results: make(chan protocol.Result, 8),
		ctx:     cctx,
		cancel:  cancel,
	}

	if err := c.handshake(); err != nil {
		c.Close()
		return nil, fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()
	return c, nil
}

func (c *Client) handshake() error {
	hello := protocol.Hello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  protocol.Version,
	}
	if err := c.send(protocol.Message{Type: protocol.TypeHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read welcome: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	msg, err := protocol.Decode(data)
	if err != nil {
		return err
	}
	if msg.Type != protocol.TypeWelcome {
		return fmt.Errorf("expected %s, got %s", protocol.TypeWelcome, msg.Type)
	}
	if err := protocol.DecodePayload(msg, &c.welcome); err != nil {
		return err
	}

	log.Printf("Handshake complete with %s %s (session %s)", c.welcome.Product, c.welcome.Version, c.welcome.SessionID)
	return nil
}

// Welcome returns the engine's hello
func (c *Client) Welcome() protocol.Welcome {
	return c.welcome
}

// Send issues a command; the reply arrives on Results
func (c *Client) Send(cmd protocol.Command) error {
	return c.send(protocol.Message{Type: protocol.TypeCommand, Payload: cmd})
}

// Do sends a command and waits for its result
func (c *Client) Do(ctx context.Context, cmd protocol.Command) (protocol.Result, error) {
	if err := c.Send(cmd); err != nil {
		return protocol.Result{}, err
	}
	select {
	case res, ok := <-c.Results:
		if !ok {
			return protocol.Result{}, fmt.Errorf("connection closed")
		}
		return res, nil
	case <-ctx.Done():
		return protocol.Result{}, ctx.Err()
	}
}

func (c *Client) send(msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readMessages() {
	defer close(c.Results)
	defer close(c.Status)
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				log.Printf("Read error: %v", err)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Printf("Monitor client: %v", err)
			continue
		}

		switch msg.Type {
		case protocol.TypeStatus:
			var st protocol.Status
			if err := protocol.DecodePayload(msg, &st); err != nil {
				log.Printf("Monitor client: %v", err)
				continue
			}
			// only the latest status matters
			select {
			case c.Status <- st:
			default:
			}

		case protocol.TypeResult:
			var res protocol.Result
			if err := protocol.DecodePayload(msg, &res); err != nil {
				log.Printf("Monitor client: %v", err)
				continue
			}
			select {
			case c.Results <- res:
			case <-c.ctx.Done():
				return
			}

		default:
			log.Printf("Unknown message type: %s", msg.Type)
		}
	}
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}
