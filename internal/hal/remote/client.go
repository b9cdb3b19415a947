package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/hdmiinput/internal/hal"
)

// DefaultTimeout bounds a request when the caller's context has no deadline.
const DefaultTimeout = 2 * time.Second

// Client implements hal.HdmiInput by forwarding each call over NATS.
type Client struct {
	conn    *nats.Conn
	timeout time.Duration
}

var _ hal.HdmiInput = (*Client)(nil)

// NewClient creates a client on conn. The client owns conn and closes it in
// Close. A zero timeout selects DefaultTimeout.
func NewClient(conn *nats.Conn, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{conn: conn, timeout: timeout}
}

func (c *Client) call(ctx context.Context, op string, req Request) (Response, error) {
	port := req.Port
	if op == OpNumberOfInputs || op == OpScaleVideo || op == OpSupportedGameFeatures {
		port = -1
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	data, err := json.Marshal(req)
	if err != nil {
		return Response{}, hal.NewError(op, port, err)
	}

	msg, err := c.conn.RequestWithContext(ctx, Subject(op), data)
	if err != nil {
		return Response{}, hal.NewError(op, port, fmt.Errorf("%w: %w", hal.ErrUnavailable, err))
	}

	var resp Response
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return Response{}, hal.NewError(op, port, fmt.Errorf("decode response: %w", err))
	}
	if resp.Error != "" || resp.Code != "" {
		return resp, hal.NewError(op, port, errorOf(resp))
	}
	return resp, nil
}

// NumberOfInputs implements hal.HdmiInput.
func (c *Client) NumberOfInputs(ctx context.Context) (int, error) {
	resp, err := c.call(ctx, OpNumberOfInputs, Request{})
	return resp.Count, err
}

// IsPortConnected implements hal.HdmiInput.
func (c *Client) IsPortConnected(ctx context.Context, port int) (bool, error) {
	resp, err := c.call(ctx, OpIsPortConnected, Request{Port: port})
	return resp.Connected, err
}

// SelectPort implements hal.HdmiInput.
func (c *Client) SelectPort(ctx context.Context, port int) error {
	_, err := c.call(ctx, OpSelectPort, Request{Port: port})
	return err
}

// ScaleVideo implements hal.HdmiInput.
func (c *Client) ScaleVideo(ctx context.Context, x, y, width, height int) error {
	_, err := c.call(ctx, OpScaleVideo, Request{X: x, Y: y, Width: width, Height: height})
	return err
}

// EDIDBytes implements hal.HdmiInput.
func (c *Client) EDIDBytes(ctx context.Context, port int) ([]byte, error) {
	resp, err := c.call(ctx, OpEDIDBytes, Request{Port: port})
	return resp.Data, err
}

// WriteEDID implements hal.HdmiInput.
func (c *Client) WriteEDID(ctx context.Context, port int, edid []byte) error {
	_, err := c.call(ctx, OpWriteEDID, Request{Port: port, EDID: edid})
	return err
}

// SPDInfo implements hal.HdmiInput.
func (c *Client) SPDInfo(ctx context.Context, port int) ([]byte, error) {
	resp, err := c.call(ctx, OpSPDInfo, Request{Port: port})
	return resp.Data, err
}

// SetEdidVersion implements hal.HdmiInput.
func (c *Client) SetEdidVersion(ctx context.Context, port int, version hal.EdidVersion) error {
	_, err := c.call(ctx, OpSetEdidVersion, Request{Port: port, Version: version})
	return err
}

// EdidVersion implements hal.HdmiInput.
func (c *Client) EdidVersion(ctx context.Context, port int) (hal.EdidVersion, error) {
	resp, err := c.call(ctx, OpEdidVersion, Request{Port: port})
	if err != nil {
		return hal.EdidVersionUnset, err
	}
	return resp.Version, nil
}

// SupportedGameFeatures implements hal.HdmiInput.
func (c *Client) SupportedGameFeatures(ctx context.Context) ([]string, error) {
	resp, err := c.call(ctx, OpSupportedGameFeatures, Request{})
	return resp.Features, err
}

// ALLMStatus implements hal.HdmiInput.
func (c *Client) ALLMStatus(ctx context.Context, port int) (bool, error) {
	resp, err := c.call(ctx, OpALLMStatus, Request{Port: port})
	return resp.Enabled, err
}

// Close implements hal.HdmiInput and closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return errors.New("remote: client not connected")
	}
	c.conn.Close()
	return nil
}
