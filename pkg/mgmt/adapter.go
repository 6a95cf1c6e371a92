package mgmt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrTimeout = errors.New("command timed out")
	ErrClosed  = errors.New("adapter closed")
)

// DefaultCommandTimeout bounds how long SendCommand waits for the kernel.
const DefaultCommandTimeout = 5 * time.Second

// PacketConn is the framed connection an Adapter drives. *Socket implements it.
type PacketConn interface {
	ReadPacket() (EventPacket, error)
	WritePacket(CommandPacket) error
	Close() error
}

// Adapter matches commands to their Command Complete or Command Status events
// and tracks the settings of the controller it was synced to.
type Adapter struct {
	conn    PacketConn
	logger  *zap.Logger
	timeout time.Duration

	onPacketLock sync.Mutex
	onPacket     map[string]func(EventPacket, error)
	// replies still owed by the kernel for commands that timed out. Replies
	// carry no request id, so the next one for the same command is dropped.
	stale map[commandKey]int

	mu         sync.Mutex
	synced     bool
	index      uint16
	version    VersionInformation
	info       ControllerInformation
	onSettings func(Settings)

	closeOnce sync.Once
	done      chan struct{}
}

type AdapterOption func(*Adapter)

// WithCommandTimeout sets how long a command may wait for its reply. Zero waits forever.
func WithCommandTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		a.timeout = d
	}
}

func WithAdapterLogger(l *zap.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = l
	}
}

// NewAdapter starts reading events from conn.
func NewAdapter(conn PacketConn, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		conn:     conn,
		logger:   zap.L(),
		timeout:  DefaultCommandTimeout,
		onPacket: make(map[string]func(EventPacket, error)),
		stale:    make(map[commandKey]int),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.readLoop()
	return a
}

func (a *Adapter) readLoop() {
	defer close(a.done)
	for {
		p, err := a.conn.ReadPacket()
		if err != nil {
			if errors.Is(err, ErrIncorrectPacket) || errors.Is(err, ErrInvalidLength) || errors.Is(err, io.ErrShortBuffer) {
				a.logger.Debug("dropping malformed event", zap.Error(err))
				continue
			}
			a.dispatch(nil, err)
			return
		}
		if s, ok := p.(*NewSettingsEventPacket); ok {
			a.updateSettings(s)
		}
		a.dispatch(p, nil)
	}
}

type commandKey struct {
	opcode Opcode
	index  uint16
}

// finalReply reports the command p completes, if any. A successful Command
// Status only means the command is pending.
func finalReply(p EventPacket) (commandKey, bool) {
	switch q := p.(type) {
	case *CommandCompleteEventPacket:
		return commandKey{q.CommandOpcode, q.Index}, true
	case *CommandStatusEventPacket:
		return commandKey{q.CommandOpcode, q.Index}, q.Status != StatusSuccess
	}
	return commandKey{}, false
}

// dispatch runs the callbacks under onPacketLock; they must not block.
func (a *Adapter) dispatch(p EventPacket, err error) {
	a.onPacketLock.Lock()
	defer a.onPacketLock.Unlock()
	if key, ok := finalReply(p); ok && a.stale[key] > 0 {
		a.stale[key]--
		if a.stale[key] == 0 {
			delete(a.stale, key)
		}
		a.logger.Debug("dropping late reply",
			zap.Stringer("command", key.opcode),
			zap.Uint16("index", key.index))
		return
	}
	for _, cb := range a.onPacket {
		cb(p, err)
	}
}

func (a *Adapter) updateSettings(p *NewSettingsEventPacket) {
	a.mu.Lock()
	if !a.synced || p.Index != a.index {
		a.mu.Unlock()
		return
	}
	a.info.CurrentSettings = p.Settings
	cb := a.onSettings
	a.mu.Unlock()

	a.logger.Info("controller settings changed",
		zap.Uint16("index", p.Index),
		zap.Stringer("settings", p.Settings))
	if cb != nil {
		go cb(p.Settings)
	}
}

type opResult struct {
	params []byte
	err    error
}

func (a *Adapter) op(p CommandPacket) ([]byte, error) {
	done := make(chan opResult, 1)
	reply := func(r opResult) {
		select {
		case done <- r:
		default:
		}
	}
	id := uuid.NewString()
	a.onPacketLock.Lock()
	a.onPacket[id] = func(q EventPacket, err error) {
		if err != nil {
			reply(opResult{err: err})
			return
		}
		switch q := q.(type) {
		case *CommandCompleteEventPacket:
			if q.CommandOpcode != p.Opcode() || q.Index != p.ControllerIndex() {
				return
			}
			r := opResult{params: q.ReturnParameters}
			if q.Status != StatusSuccess {
				r.err = &StatusError{Opcode: q.CommandOpcode, Status: q.Status}
			}
			reply(r)
		case *CommandStatusEventPacket:
			// a successful status only means the command is pending.
			if q.CommandOpcode != p.Opcode() || q.Index != p.ControllerIndex() || q.Status == StatusSuccess {
				return
			}
			reply(opResult{err: &StatusError{Opcode: q.CommandOpcode, Status: q.Status}})
		}
	}
	a.onPacketLock.Unlock()
	defer func() {
		a.onPacketLock.Lock()
		delete(a.onPacket, id)
		a.onPacketLock.Unlock()
	}()

	select {
	case <-a.done:
		return nil, ErrClosed
	default:
	}
	if err := a.conn.WritePacket(p); err != nil {
		return nil, err
	}

	var timeout <-chan time.Time
	if a.timeout > 0 {
		t := time.NewTimer(a.timeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case r := <-done:
		return r.params, r.err
	case <-timeout:
		return a.expire(p, id, done)
	case <-a.done:
		return nil, ErrClosed
	}
}

// expire gives up on p unless its reply raced the timer, in which case the
// reply is returned. Otherwise the reply the kernel still owes is marked stale.
func (a *Adapter) expire(p CommandPacket, id string, done chan opResult) ([]byte, error) {
	a.onPacketLock.Lock()
	defer a.onPacketLock.Unlock()
	delete(a.onPacket, id)
	select {
	case r := <-done:
		return r.params, r.err
	default:
	}
	a.stale[commandKey{p.Opcode(), p.ControllerIndex()}]++
	return nil, ErrTimeout
}

// SendCommand writes p and waits for the kernel to acknowledge it. A
// non-success status is returned as *StatusError.
func (a *Adapter) SendCommand(p CommandPacket) error {
	_, err := a.op(p)
	return err
}

func (a *Adapter) ReadVersion() (VersionInformation, error) {
	var v VersionInformation
	buf, err := a.op(NewGenericCommandPacket(OpcodeReadVersion, IndexNone))
	if err != nil {
		return v, err
	}
	return v, v.Unmarshal(buf)
}

func (a *Adapter) ReadIndexList() ([]uint16, error) {
	buf, err := a.op(NewGenericCommandPacket(OpcodeReadIndexList, IndexNone))
	if err != nil {
		return nil, err
	}
	if len(buf) < 2 {
		return nil, io.ErrShortBuffer
	}
	n := int(binary.LittleEndian.Uint16(buf))
	if len(buf) < 2+n*2 {
		return nil, io.ErrShortBuffer
	}
	indexes := make([]uint16, n)
	for i := range indexes {
		indexes[i] = binary.LittleEndian.Uint16(buf[2+i*2:])
	}
	return indexes, nil
}

func (a *Adapter) ReadControllerInformation(index uint16) (ControllerInformation, error) {
	var info ControllerInformation
	buf, err := a.op(NewGenericCommandPacket(OpcodeReadControllerInfo, index))
	if err != nil {
		return info, err
	}
	return info, info.Unmarshal(buf)
}

// Sync validates that the controller at index exists and records its
// information. Settings changes reported for it afterwards are tracked.
func (a *Adapter) Sync(index uint16) error {
	version, err := a.ReadVersion()
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	indexes, err := a.ReadIndexList()
	if err != nil {
		return fmt.Errorf("read index list: %w", err)
	}
	found := false
	for _, i := range indexes {
		if i == index {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("controller hci%d: %w", index, &StatusError{Opcode: OpcodeReadIndexList, Status: StatusInvalidIndex})
	}
	info, err := a.ReadControllerInformation(index)
	if err != nil {
		return fmt.Errorf("read controller information: %w", err)
	}

	a.mu.Lock()
	a.synced = true
	a.index = index
	a.version = version
	a.info = info
	a.mu.Unlock()

	a.logger.Info("controller synced",
		zap.Uint16("index", index),
		zap.String("mgmtVersion", fmt.Sprintf("%d.%d", version.Version, version.Revision)),
		zap.Stringer("address", info.Address),
		zap.String("name", info.Name),
		zap.Stringer("settings", info.CurrentSettings))
	return nil
}

func (a *Adapter) Version() VersionInformation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.version
}

// Info returns the synced controller information with its current settings.
func (a *Adapter) Info() ControllerInformation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.info
}

func (a *Adapter) Settings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.info.CurrentSettings
}

// OnSettings registers f to be called in its own goroutine whenever the
// synced controller reports new settings.
func (a *Adapter) OnSettings(f func(Settings)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSettings = f
}

// Close closes the connection and waits for the read loop to exit.
func (a *Adapter) Close() error {
	err := ErrClosed
	a.closeOnce.Do(func() {
		err = a.conn.Close()
		<-a.done
	})
	return err
}
