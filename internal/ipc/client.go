package ipc

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client drives a running recorder service over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus. The service is contacted lazily on
// the first call, so construction succeeds even when no recorder is
// running.
func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, ObjectPath),
	}, nil
}

// StartRecording asks the service to start a session.
func (c *Client) StartRecording() (bool, error) {
	var started bool
	if err := c.obj.Call(Interface+".StartRecording", 0).Store(&started); err != nil {
		return false, fmt.Errorf("StartRecording call failed: %w", err)
	}
	return started, nil
}

// StopRecording asks the service to stop the active session.
func (c *Client) StopRecording() (bool, error) {
	var stopped bool
	if err := c.obj.Call(Interface+".StopRecording", 0).Store(&stopped); err != nil {
		return false, fmt.Errorf("StopRecording call failed: %w", err)
	}
	return stopped, nil
}

// IsRecording queries the service's recording state.
func (c *Client) IsRecording() (bool, error) {
	var recording bool
	if err := c.obj.Call(Interface+".IsRecording", 0).Store(&recording); err != nil {
		return false, fmt.Errorf("IsRecording call failed: %w", err)
	}
	return recording, nil
}

// CurrentRecording returns the active session's output path, or "".
func (c *Client) CurrentRecording() (string, error) {
	var file string
	if err := c.obj.Call(Interface+".GetCurrentRecording", 0).Store(&file); err != nil {
		return "", fmt.Errorf("GetCurrentRecording call failed: %w", err)
	}
	return file, nil
}

// Close closes the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
