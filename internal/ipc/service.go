// Package ipc exposes the recorder on the D-Bus session bus and provides
// the matching client.
package ipc

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// BusName is the well-known session bus name of the recorder service.
	BusName = "org.gnome.AudioRecorder"

	// ObjectPath is where the recorder object lives on the bus.
	ObjectPath = dbus.ObjectPath("/org/gnome/AudioRecorder")

	// Interface is the recorder's D-Bus interface name.
	Interface = "org.gnome.AudioRecorder"
)

// Session is the recording controller surface driven over the bus.
type Session interface {
	Start() error
	Stop() error
	IsRecording() bool
	CurrentFile() string
}

// Handler implements the exported D-Bus methods. Failures are logged and
// reported as false or an empty string, never as D-Bus errors, so callers
// that don't check the return value stay unaffected.
type Handler struct {
	session Session
}

// StartRecording starts a session; false means it was refused or failed.
func (h *Handler) StartRecording() (bool, *dbus.Error) {
	if err := h.session.Start(); err != nil {
		slog.Error("StartRecording failed", "error", err)
		return false, nil
	}
	return true, nil
}

// StopRecording stops the active session; false means none was active or
// stopping failed.
func (h *Handler) StopRecording() (bool, *dbus.Error) {
	if err := h.session.Stop(); err != nil {
		slog.Error("StopRecording failed", "error", err)
		return false, nil
	}
	return true, nil
}

// IsRecording reports whether a session is active.
func (h *Handler) IsRecording() (bool, *dbus.Error) {
	return h.session.IsRecording(), nil
}

// GetCurrentRecording returns the active session's output path, or "".
func (h *Handler) GetCurrentRecording() (string, *dbus.Error) {
	return h.session.CurrentFile(), nil
}

var introspection = &introspect.Node{
	Name: string(ObjectPath),
	Interfaces: []introspect.Interface{
		introspect.IntrospectData,
		{
			Name: Interface,
			Methods: []introspect.Method{
				{Name: "StartRecording", Args: []introspect.Arg{{Name: "started", Type: "b", Direction: "out"}}},
				{Name: "StopRecording", Args: []introspect.Arg{{Name: "stopped", Type: "b", Direction: "out"}}},
				{Name: "IsRecording", Args: []introspect.Arg{{Name: "recording", Type: "b", Direction: "out"}}},
				{Name: "GetCurrentRecording", Args: []introspect.Arg{{Name: "file", Type: "s", Direction: "out"}}},
			},
		},
	},
}

// Service owns the bus connection and the exported recorder object.
type Service struct {
	conn *dbus.Conn
}

// NewService connects to the session bus, exports the session under the
// well-known name and fails if the name is already owned by another
// process.
func NewService(session Session) (*Service, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	handler := &Handler{session: session}
	if err := conn.Export(handler, ObjectPath, Interface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to export recorder object: %w", err)
	}
	if err := conn.Export(introspect.NewIntrospectable(introspection), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to export introspection data: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("bus name %s is already taken, is another recorder running?", BusName)
	}

	slog.Info("D-Bus service registered", "name", BusName, "path", ObjectPath)
	return &Service{conn: conn}, nil
}

// Close releases the bus name and closes the connection.
func (s *Service) Close() error {
	if _, err := s.conn.ReleaseName(BusName); err != nil {
		slog.Debug("Failed to release bus name", "error", err)
	}
	return s.conn.Close()
}
