package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status snapshot.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Hopper.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetLongRunning toggles long-running mode on the daemon.
func (c *Client) SetLongRunning(enabled bool) (*LongRunResponse, error) {
	var resp LongRunResponse
	if err := c.client.Call("Hopper.SetLongRunning", LongRunRequest{Enabled: enabled}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PathPreview builds an output path from raw name parts on the daemon.
func (c *Client) PathPreview(req PathPreviewRequest) (*PathPreviewResponse, error) {
	var resp PathPreviewResponse
	if err := c.client.Call("Hopper.PathPreview", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SanitizePreview previews illegal-character replacement on a name.
func (c *Client) SanitizePreview(req SanitizeRequest) (*SanitizeResponse, error) {
	var resp SanitizeResponse
	if err := c.client.Call("Hopper.SanitizePreview", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TitleList lists catalog titles matching a query.
func (c *Client) TitleList(query string, limit int) (*TitleListResponse, error) {
	var resp TitleListResponse
	req := TitleListRequest{Query: query, Limit: limit}
	if err := c.client.Call("Hopper.TitleList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Hopper.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Prefs retrieves the mutable runtime preferences.
func (c *Client) Prefs() (*PrefsResponse, error) {
	var resp PrefsResponse
	if err := c.client.Call("Hopper.Prefs", PrefsGetRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetPref updates one preference by name.
func (c *Client) SetPref(name string, enabled bool) (*PrefsResponse, error) {
	var resp PrefsResponse
	req := PrefsSetRequest{Name: name, Enabled: enabled}
	if err := c.client.Call("Hopper.SetPref", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Hopper.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.client.Call("Hopper.Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
