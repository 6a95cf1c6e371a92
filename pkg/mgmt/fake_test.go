package mgmt

import (
	"errors"
	"io"
	"sync"
)

// recordingTransport captures every frame sent to it.
type recordingTransport struct {
	mu      sync.Mutex
	syncErr error
	sendErr error
	synced  []uint16
	sent    []CommandPacket
}

func (t *recordingTransport) Sync(index uint16) error {
	t.synced = append(t.synced, index)
	return t.syncErr
}

func (t *recordingTransport) SendCommand(p CommandPacket) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, p)
	return t.sendErr
}

func (t *recordingTransport) last() CommandPacket {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sent) == 0 {
		return nil
	}
	return t.sent[len(t.sent)-1]
}

// fakeConn answers commands with scripted replies.
type fakeConn struct {
	events  chan EventPacket
	closed  chan struct{}
	once    sync.Once
	mu      sync.Mutex
	written []CommandPacket
	reply   func(CommandPacket) []EventPacket
}

func newFakeConn(reply func(CommandPacket) []EventPacket) *fakeConn {
	return &fakeConn{
		events: make(chan EventPacket, 16),
		closed: make(chan struct{}),
		reply:  reply,
	}
}

func (c *fakeConn) ReadPacket() (EventPacket, error) {
	select {
	case p := <-c.events:
		return p, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WritePacket(p CommandPacket) error {
	select {
	case <-c.closed:
		return errors.New("closed")
	default:
	}
	c.mu.Lock()
	c.written = append(c.written, p)
	c.mu.Unlock()
	if c.reply != nil {
		for _, e := range c.reply(p) {
			c.events <- e
		}
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func complete(p CommandPacket, status Status, params []byte) *CommandCompleteEventPacket {
	return &CommandCompleteEventPacket{
		Index:            p.ControllerIndex(),
		CommandOpcode:    p.Opcode(),
		Status:           status,
		ReturnParameters: params,
	}
}
