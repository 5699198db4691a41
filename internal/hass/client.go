package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/exposure-core/internal/infrastructure/config"
	"github.com/nerrad567/exposure-core/internal/infrastructure/logging"
	"github.com/nerrad567/exposure-core/internal/registry"
)

// handshakeTimeout bounds the WebSocket upgrade itself; individual
// frames are bounded by the per-call context deadline.
const handshakeTimeout = 10 * time.Second

// Client fetches registry snapshots over the Home Assistant WebSocket
// API. It implements registry.Provider.
//
// Each Snapshot call dials a fresh connection, authenticates with the
// long-lived access token, issues the three registry list commands, and
// closes. Keeping no persistent connection sidesteps reconnect state
// for what is a low-frequency, bulk read.
type Client struct {
	url     string
	token   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewClient creates a Home Assistant registry client.
//
// Parameters:
//   - cfg: Home Assistant connection settings
//   - logger: Structured logger
//
// Returns:
//   - *Client: Configured client
//   - error: If the base URL cannot be parsed
func NewClient(cfg config.HomeAssistantConfig, logger *logging.Logger) (*Client, error) {
	wsURL, err := websocketURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = handshakeTimeout
	}

	return &Client{
		url:     wsURL,
		token:   cfg.Token,
		timeout: timeout,
		logger:  logger.With("component", "hass"),
	}, nil
}

// websocketURL converts a Home Assistant base URL into its WebSocket
// API endpoint: http(s)://host[:port] -> ws(s)://host[:port]/api/websocket.
func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing Home Assistant URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported Home Assistant URL scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/websocket"
	return u.String(), nil
}

// Snapshot implements registry.Provider. It returns all entities,
// devices, and areas as of call time.
func (c *Client) Snapshot(ctx context.Context) (*registry.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close() //nolint:errcheck // Read side already drained

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)  //nolint:errcheck // Deadline errors surface on read
		_ = conn.SetWriteDeadline(deadline) //nolint:errcheck // Deadline errors surface on write
	}

	if err := c.authenticate(conn); err != nil {
		return nil, err
	}

	// Command ids start after the auth phase; Home Assistant requires
	// them to increase per connection.
	nextID := 0

	var entityEntries []entityEntry
	nextID++
	if err := c.command(conn, nextID, cmdEntityRegistryList, &entityEntries); err != nil {
		return nil, fmt.Errorf("listing entity registry: %w", err)
	}

	var deviceEntries []deviceEntry
	nextID++
	if err := c.command(conn, nextID, cmdDeviceRegistryList, &deviceEntries); err != nil {
		return nil, fmt.Errorf("listing device registry: %w", err)
	}

	var areaEntries []areaEntry
	nextID++
	if err := c.command(conn, nextID, cmdAreaRegistryList, &areaEntries); err != nil {
		return nil, fmt.Errorf("listing area registry: %w", err)
	}

	snap := assembleSnapshot(entityEntries, deviceEntries, areaEntries)

	c.logger.Debug("registry snapshot taken",
		"entities", len(snap.Entities),
		"devices", len(snap.Devices),
		"areas", len(snap.Areas),
	)
	return snap, nil
}

// HealthCheck verifies the Home Assistant WebSocket API is reachable
// and the token is accepted.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck // Best effort close

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)  //nolint:errcheck // Deadline errors surface on read
		_ = conn.SetWriteDeadline(deadline) //nolint:errcheck // Deadline errors surface on write
	}

	return c.authenticate(conn)
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close() //nolint:errcheck // Best effort cleanup
		}
		return nil, fmt.Errorf("connecting to Home Assistant: %w", err)
	}
	if resp != nil {
		resp.Body.Close() //nolint:errcheck // Upgrade response body is unused
	}
	return conn, nil
}

// authenticate performs the auth_required/auth/auth_ok handshake.
func (c *Client) authenticate(conn *websocket.Conn) error {
	var hello message
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("reading auth_required: %w", err)
	}
	if hello.Type != typeAuthRequired {
		return fmt.Errorf("%w: expected auth_required, got %q", ErrUnexpectedMessage, hello.Type)
	}

	if err := conn.WriteJSON(message{Type: typeAuth, AccessToken: c.token}); err != nil {
		return fmt.Errorf("sending auth: %w", err)
	}

	var reply message
	if err := conn.ReadJSON(&reply); err != nil {
		return fmt.Errorf("reading auth reply: %w", err)
	}
	switch reply.Type {
	case typeAuthOK:
		return nil
	case typeAuthInvalid:
		return ErrAuthFailed
	default:
		return fmt.Errorf("%w: expected auth_ok, got %q", ErrUnexpectedMessage, reply.Type)
	}
}

// command sends one typed request and decodes its result frame into
// out. Frames for other ids are skipped.
func (c *Client) command(conn *websocket.Conn, id int, cmdType string, out any) error {
	if err := conn.WriteJSON(message{ID: id, Type: cmdType}); err != nil {
		return fmt.Errorf("sending %s: %w", cmdType, err)
	}

	for {
		var reply message
		if err := conn.ReadJSON(&reply); err != nil {
			return fmt.Errorf("reading %s result: %w", cmdType, err)
		}
		if reply.Type != typeResult || reply.ID != id {
			continue
		}
		if !reply.Success {
			if reply.Error != nil {
				return fmt.Errorf("%w: %s: %s (%s)", ErrCommandFailed, cmdType, reply.Error.Message, reply.Error.Code)
			}
			return fmt.Errorf("%w: %s", ErrCommandFailed, cmdType)
		}
		if err := json.Unmarshal(reply.Result, out); err != nil {
			return fmt.Errorf("decoding %s result: %w", cmdType, err)
		}
		return nil
	}
}

// assembleSnapshot converts the wire entries into registry types.
func assembleSnapshot(entities []entityEntry, devices []deviceEntry, areas []areaEntry) *registry.Snapshot {
	regEntities := make([]registry.Entity, 0, len(entities))
	for _, e := range entities {
		regEntities = append(regEntities, registry.Entity{
			ID:         e.EntityID,
			Name:       deref(e.Name),
			DeviceID:   deref(e.DeviceID),
			AreaID:     deref(e.AreaID),
			DisabledBy: deref(e.DisabledBy),
			HiddenBy:   deref(e.HiddenBy),
			Category:   deref(e.Category),
		})
	}

	regDevices := make([]registry.Device, 0, len(devices))
	for _, d := range devices {
		regDevices = append(regDevices, registry.Device{
			ID:     d.ID,
			Name:   deref(d.Name),
			AreaID: deref(d.AreaID),
		})
	}

	regAreas := make([]registry.Area, 0, len(areas))
	for _, a := range areas {
		regAreas = append(regAreas, registry.Area{
			ID:   a.AreaID,
			Name: a.Name,
		})
	}

	return registry.NewSnapshot(regEntities, regDevices, regAreas)
}
