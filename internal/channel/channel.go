package channel

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	// DefaultBufferSize is the receive capacity, terminator included.
	DefaultBufferSize = 1024
	// MaxNameLen is the longest logical name accepted: sun_path holds 108
	// bytes and the abstract namespace spends one on the leading NUL.
	MaxNameLen = 107
)

// Channel is one end of a local byte stream. The zero value is not usable;
// construct channels with New, FromFD, or Accept.
type Channel struct {
	fd      int
	bufSize int
	addr    string
}

// Option customizes a Channel at construction time.
type Option func(*Channel)

// WithBufferSize overrides the receive capacity. Values below 2 are ignored.
func WithBufferSize(size int) Option {
	return func(c *Channel) {
		if size >= 2 {
			c.bufSize = size
		}
	}
}

// New opens a fresh, unbound stream socket.
func New(opts ...Option) (*Channel, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, opError("socket", "", err)
	}
	return newChannel(fd, opts), nil
}

// FromFD adopts an inherited descriptor. The descriptor must be a Unix stream
// socket; ownership passes to the returned Channel.
func FromFD(fd int, opts ...Option) (*Channel, error) {
	if fd < 0 {
		return nil, closedError("adopt", "")
	}
	domain, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_DOMAIN)
	if err != nil {
		return nil, opError("adopt", "", err)
	}
	sotype, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		return nil, opError("adopt", "", err)
	}
	if domain != unix.AF_UNIX || sotype != unix.SOCK_STREAM {
		return nil, &OpError{
			Op:   "adopt",
			Kind: ErrSystem,
			Err:  fmt.Errorf("descriptor %d is not a unix stream socket", fd),
		}
	}
	unix.CloseOnExec(fd)

	c := newChannel(fd, opts)
	if sa, err := unix.Getsockname(fd); err == nil {
		if un, ok := sa.(*unix.SockaddrUnix); ok {
			c.addr = un.Name
		}
	}
	return c, nil
}

func newChannel(fd int, opts []Option) *Channel {
	c := &Channel{fd: fd, bufSize: DefaultBufferSize}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// NormalizeName validates a logical name and returns it in its canonical
// "@name" form.
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimPrefix(name, "@")
	if trimmed == "" || len(trimmed) > MaxNameLen {
		return "", invalidAddress("resolve", name)
	}
	return "@" + trimmed, nil
}

// FD returns the owned descriptor, or -1 once released.
func (c *Channel) FD() int { return c.fd }

// Addr returns the logical name the channel is bound or connected to.
func (c *Channel) Addr() string { return c.addr }

// BufferSize returns the receive capacity, terminator included.
func (c *Channel) BufferSize() int { return c.bufSize }

// Bind associates the channel with a logical name in the abstract namespace.
func (c *Channel) Bind(name string) error {
	if c.fd < 0 {
		return closedError("bind", name)
	}
	addr, err := NormalizeName(name)
	if err != nil {
		return invalidAddress("bind", name)
	}
	if err := unix.Bind(c.fd, &unix.SockaddrUnix{Name: addr}); err != nil {
		return opError("bind", addr, err)
	}
	c.addr = addr
	return nil
}

// Connect attaches the channel to the listener bound at name.
func (c *Channel) Connect(name string) error {
	if c.fd < 0 {
		return closedError("connect", name)
	}
	addr, err := NormalizeName(name)
	if err != nil {
		return invalidAddress("connect", name)
	}
	if err := unix.Connect(c.fd, &unix.SockaddrUnix{Name: addr}); err != nil {
		return opError("connect", addr, err)
	}
	c.addr = addr
	return nil
}

// Listen marks a bound channel as accepting connections with the given
// pending-connection backlog.
func (c *Channel) Listen(backlog int) error {
	if c.fd < 0 {
		return closedError("listen", c.addr)
	}
	if backlog <= 0 {
		return &OpError{Op: "listen", Addr: c.addr, Kind: ErrSystem, Err: fmt.Errorf("backlog must be positive, got %d", backlog)}
	}
	return opError("listen", c.addr, unix.Listen(c.fd, backlog))
}

// Listening reports whether the kernel considers the socket a listener.
func (c *Channel) Listening() (bool, error) {
	if c.fd < 0 {
		return false, closedError("getsockopt", c.addr)
	}
	value, err := unix.GetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_ACCEPTCONN)
	if err != nil {
		return false, opError("getsockopt", c.addr, err)
	}
	return value != 0, nil
}

// Accept blocks until a pending connection exists and returns it wrapped in a
// new Channel sharing this channel's buffer size.
func (c *Channel) Accept() (*Channel, error) {
	if c.fd < 0 {
		return nil, closedError("accept", c.addr)
	}
	for {
		nfd, _, err := unix.Accept4(c.fd, unix.SOCK_CLOEXEC)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, opError("accept", c.addr, err)
		}
		return &Channel{fd: nfd, bufSize: c.bufSize, addr: c.addr}, nil
	}
}

// Receive performs one blocking read into a fresh buffer and returns the
// message it holds. At most BufferSize()-1 bytes are consumed per call; the
// rest is returned by later calls. The message ends at the first NUL. A
// zero-length read returns io.EOF.
func (c *Channel) Receive() (string, error) {
	if c.fd < 0 {
		return "", closedError("receive", c.addr)
	}
	// The last slot is the terminator. Bytes past it stay queued in the socket.
	buf := make([]byte, c.bufSize-1)
	var n int
	for {
		var err error
		n, err = unix.Read(c.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return "", opError("receive", c.addr, err)
		}
		break
	}
	if n == 0 {
		return "", io.EOF
	}
	msg := buf[:n]
	if i := bytes.IndexByte(msg, 0); i >= 0 {
		msg = msg[:i]
	}
	return string(msg), nil
}

// Send writes the whole message, retrying short writes. Empty messages are
// not sent.
func (c *Channel) Send(msg string) error {
	if msg == "" {
		return nil
	}
	if c.fd < 0 {
		return closedError("send", c.addr)
	}
	p := []byte(msg)
	for len(p) > 0 {
		n, err := unix.SendmsgN(c.fd, p, nil, nil, unix.MSG_NOSIGNAL)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return opError("send", c.addr, err)
		}
		if n == 0 {
			return &OpError{Op: "send", Addr: c.addr, Kind: ErrSystem, Err: io.ErrShortWrite}
		}
		p = p[n:]
	}
	return nil
}

// Shutdown disables both directions without releasing the descriptor.
func (c *Channel) Shutdown() error {
	if c.fd < 0 {
		return closedError("shutdown", c.addr)
	}
	return opError("shutdown", c.addr, unix.Shutdown(c.fd, unix.SHUT_RDWR))
}

// File returns a duplicate of the descriptor as an *os.File, suitable for
// handing to a child process. The Channel keeps its own descriptor.
func (c *Channel) File() (*os.File, error) {
	if c.fd < 0 {
		return nil, closedError("dup", c.addr)
	}
	nfd, err := unix.FcntlInt(uintptr(c.fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, opError("dup", c.addr, err)
	}
	return os.NewFile(uintptr(nfd), "dserver-"+strings.TrimPrefix(c.addr, "@")), nil
}

// Close releases the descriptor. Subsequent calls are no-ops.
func (c *Channel) Close() error {
	if c.fd < 0 {
		return nil
	}
	fd := c.fd
	c.fd = -1
	return opError("close", c.addr, unix.Close(fd))
}
