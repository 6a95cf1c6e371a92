// Package mgmt encodes adapter configuration commands for the Linux Bluetooth
// Management (mgmt) socket protocol and sends them over the control channel.
//
// Every command is a fixed-layout little-endian frame: a 6 byte header
// {opcode, controller index, parameter length} followed by the command
// parameters without padding.
package mgmt

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrCommandFailed is wrapped by Configure when a step is rejected.
var ErrCommandFailed = errors.New("command failed")

// Transport delivers command frames to the kernel. *Adapter implements it.
type Transport interface {
	// Sync establishes the channel to the controller at index.
	Sync(index uint16) error
	// SendCommand returns nil iff the command was acknowledged without error.
	SendCommand(p CommandPacket) error
}

// CommandObserver is notified of the outcome of every command.
type CommandObserver interface {
	ObserveCommand(op Opcode, err error)
}

// Mgmt configures one controller. Calls are synchronous; callers issuing
// commands concurrently against the same controller must serialize them.
type Mgmt struct {
	transport     Transport
	index         uint16
	logger        *zap.Logger
	advertisement Advertisement
	observer      CommandObserver
}

type Option func(*Mgmt)

func WithLogger(l *zap.Logger) Option {
	return func(m *Mgmt) {
		m.logger = l
	}
}

// WithAdvertisement replaces DefaultAdvertisement as the payload of AddAdvertising.
func WithAdvertisement(a Advertisement) Option {
	return func(m *Mgmt) {
		m.advertisement = a
	}
}

func WithObserver(o CommandObserver) Option {
	return func(m *Mgmt) {
		m.observer = o
	}
}

// New binds a Mgmt to the controller at index and syncs the transport to it.
func New(t Transport, index uint16, opts ...Option) (*Mgmt, error) {
	m := &Mgmt{
		transport:     t,
		index:         index,
		logger:        zap.L(),
		advertisement: DefaultAdvertisement(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := t.Sync(index); err != nil {
		return nil, fmt.Errorf("sync hci%d: %w", index, err)
	}
	return m, nil
}

func (m *Mgmt) Index() uint16 {
	return m.index
}

func (m *Mgmt) send(p CommandPacket) error {
	err := m.transport.SendCommand(p)
	if m.observer != nil {
		m.observer.ObserveCommand(p.Opcode(), err)
	}
	return err
}

// Profile is the adapter configuration applied by Configure.
type Profile struct {
	Name              string
	ShortName         string
	BREDR             bool
	SecureConnections SecureConnectionsMode
	Bondable          bool
	Connectable       bool
	LE                bool
	Advertising       AdvertisingMode
	// Advertise registers the advertising instance once powered.
	Advertise bool
}

type configureStep struct {
	name string
	run  func() bool
}

// Configure powers the controller down, applies p and powers it back up.
// Several settings can only be changed while unpowered.
func (m *Mgmt) Configure(p Profile) error {
	steps := []configureStep{
		{"power off", func() bool { return m.SetPowered(false) }},
		{"br/edr", func() bool { return m.SetBREDR(p.BREDR) }},
		{"secure connections", func() bool { return m.SetSecureConnections(p.SecureConnections) }},
		{"bondable", func() bool { return m.SetBondable(p.Bondable) }},
		{"connectable", func() bool { return m.SetConnectable(p.Connectable) }},
		{"le", func() bool { return m.SetLE(p.LE) }},
		{"name", func() bool { return m.SetName(p.Name, p.ShortName) }},
		{"advertising", func() bool { return m.SetAdvertising(p.Advertising) }},
		{"power on", func() bool { return m.SetPowered(true) }},
	}
	if p.Advertise {
		steps = append(steps, configureStep{"add advertising", m.AddAdvertising})
	}
	for _, s := range steps {
		if !s.run() {
			return fmt.Errorf("hci%d %s: %w", m.index, s.name, ErrCommandFailed)
		}
	}
	return nil
}
