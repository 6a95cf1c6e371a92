package mgmt

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const (
	hciDevNone = 0xFFFF

	// how long a read waits before checking whether the socket was closed.
	pollTimeoutMillis = 100
)

// Socket implements the Bluetooth Management control channel.
type Socket struct {
	fd        int
	closed    chan struct{}
	closeOnce sync.Once
	rmu       sync.Mutex
	wmu       sync.Mutex
}

// NewSocket opens the control channel. It is not bound to a controller; each
// command carries its own controller index. Requires CAP_NET_ADMIN.
func NewSocket() (*Socket, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.BTPROTO_HCI)
	if err != nil {
		return nil, errors.Wrap(err, "can't create socket")
	}

	sa := unix.SockaddrHCI{Dev: hciDevNone, Channel: unix.HCI_CHANNEL_CONTROL}
	if err := unix.Bind(fd, &sa); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "can't bind control channel")
	}

	return &Socket{fd: fd, closed: make(chan struct{})}, nil
}

func (s *Socket) Read(p []byte) (int, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()
	pfds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	for {
		select {
		case <-s.closed:
			return 0, io.EOF
		default:
		}
		n, err := unix.Poll(pfds, pollTimeoutMillis)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, errors.Wrap(err, "poll")
		}
		if n == 0 {
			continue
		}
		if pfds[0].Revents&unix.POLLIN != 0 {
			return unix.Read(s.fd, p)
		}
		if err := pollError(pfds[0].Revents); err != nil {
			return 0, err
		}
	}
}

// pollError maps error conditions reported by poll to an error.
func pollError(revents int16) error {
	switch {
	case revents&unix.POLLNVAL != 0:
		return errors.Wrap(unix.EBADF, "poll")
	case revents&unix.POLLERR != 0:
		return errors.Wrap(unix.EIO, "poll")
	case revents&unix.POLLHUP != 0:
		return io.EOF
	}
	return nil
}

func (s *Socket) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	select {
	case <-s.closed:
		return 0, ErrClosed
	default:
	}
	return unix.Write(s.fd, p)
}

func (s *Socket) ReadPacket() (EventPacket, error) {
	buf := make([]byte, math.MaxUint16)
	n, err := s.Read(buf)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("mgmt reading", zap.String("packet", fmt.Sprintf("%x", buf[:n])))
	return UnmarshalEvent(buf[:n])
}

func (s *Socket) WritePacket(p CommandPacket) error {
	buf, err := p.Marshal()
	if err != nil {
		return err
	}
	zap.L().Debug("mgmt writing", zap.String("packet", fmt.Sprintf("%x", buf)))
	n, err := s.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

// Close unblocks pending reads and releases the socket.
func (s *Socket) Close() error {
	err := ErrClosed
	s.closeOnce.Do(func() {
		close(s.closed)
		s.rmu.Lock()
		defer s.rmu.Unlock()
		s.wmu.Lock()
		defer s.wmu.Unlock()
		err = unix.Close(s.fd)
	})
	return err
}
