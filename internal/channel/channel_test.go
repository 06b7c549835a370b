package channel_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"dserver/internal/channel"
)

func uniqueName() string {
	return "@dserver-test-" + uuid.NewString()
}

func newListener(t *testing.T, opts ...channel.Option) *channel.Channel {
	t.Helper()
	ln, err := channel.New(opts...)
	if err != nil {
		t.Fatalf("channel.New: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	if err := ln.Bind(uniqueName()); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := ln.Listen(4); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	return ln
}

// connectPair returns a connected client and the server-side peer.
func connectPair(t *testing.T, ln *channel.Channel, opts ...channel.Option) (*channel.Channel, *channel.Channel) {
	t.Helper()
	client, err := channel.New(opts...)
	if err != nil {
		t.Fatalf("channel.New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Connect(ln.Addr()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	peer, err := ln.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	t.Cleanup(func() { _ = peer.Close() })
	return client, peer
}

func TestNormalizeName(t *testing.T) {
	longest := strings.Repeat("n", channel.MaxNameLen)
	cases := []struct {
		in      string
		want    string
		invalid bool
	}{
		{in: "daemon-test.sock", want: "@daemon-test.sock"},
		{in: "@daemon-test.sock", want: "@daemon-test.sock"},
		{in: longest, want: "@" + longest},
		{in: "@" + longest, want: "@" + longest},
		{in: "", invalid: true},
		{in: "@", invalid: true},
		{in: longest + "x", invalid: true},
	}
	for _, tc := range cases {
		got, err := channel.NormalizeName(tc.in)
		if tc.invalid {
			if !errors.Is(err, channel.ErrInvalidAddress) {
				t.Fatalf("NormalizeName(%q): expected ErrInvalidAddress, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizeName(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBindAndConnectRejectInvalidNames(t *testing.T) {
	ch, err := channel.New()
	if err != nil {
		t.Fatalf("channel.New: %v", err)
	}
	defer ch.Close()

	if err := ch.Bind(""); !errors.Is(err, channel.ErrInvalidAddress) {
		t.Fatalf("Bind(\"\"): expected ErrInvalidAddress, got %v", err)
	}
	if err := ch.Connect(strings.Repeat("x", 200)); !errors.Is(err, channel.ErrInvalidAddress) {
		t.Fatalf("Connect(long): expected ErrInvalidAddress, got %v", err)
	}
}

func TestBindAddressInUse(t *testing.T) {
	name := uniqueName()
	first, err := channel.New()
	if err != nil {
		t.Fatalf("channel.New: %v", err)
	}
	defer first.Close()
	if err := first.Bind(name); err != nil {
		t.Fatalf("first Bind: %v", err)
	}

	second, err := channel.New()
	if err != nil {
		t.Fatalf("channel.New: %v", err)
	}
	defer second.Close()
	err = second.Bind(name)
	if !errors.Is(err, channel.ErrAddressInUse) {
		t.Fatalf("expected ErrAddressInUse, got %v", err)
	}
	if !errors.Is(err, unix.EADDRINUSE) {
		t.Fatalf("expected errno EADDRINUSE to be matchable, got %v", err)
	}
	var opErr *channel.OpError
	if !errors.As(err, &opErr) || opErr.Op != "bind" || opErr.Addr != name {
		t.Fatalf("unexpected op error: %#v", err)
	}
}

func TestConnectRefusedWithoutListener(t *testing.T) {
	ch, err := channel.New()
	if err != nil {
		t.Fatalf("channel.New: %v", err)
	}
	defer ch.Close()

	err = ch.Connect(uniqueName())
	if !errors.Is(err, channel.ErrConnectionRefused) {
		t.Fatalf("expected ErrConnectionRefused, got %v", err)
	}
}

func TestSendReceiveRoundTrip(t *testing.T) {
	ln := newListener(t)
	client, peer := connectPair(t, ln)

	if err := client.Send("hello"); err != nil {
		t.Fatalf("client Send: %v", err)
	}
	got, err := peer.Receive()
	if err != nil {
		t.Fatalf("peer Receive: %v", err)
	}
	if got != "hello" {
		t.Fatalf("peer received %q, want %q", got, "hello")
	}

	if err := peer.Send("DServer: hello"); err != nil {
		t.Fatalf("peer Send: %v", err)
	}
	reply, err := client.Receive()
	if err != nil {
		t.Fatalf("client Receive: %v", err)
	}
	if reply != "DServer: hello" {
		t.Fatalf("client received %q", reply)
	}
}

func TestReceiveBufferBoundary(t *testing.T) {
	ln := newListener(t)
	client, peer := connectPair(t, ln)

	exact := strings.Repeat("a", channel.DefaultBufferSize-1)
	if err := client.Send(exact); err != nil {
		t.Fatalf("Send exact: %v", err)
	}
	got, err := peer.Receive()
	if err != nil {
		t.Fatalf("Receive exact: %v", err)
	}
	if got != exact {
		t.Fatalf("expected %d bytes unmodified, got %d", len(exact), len(got))
	}

	oversized := strings.Repeat("b", channel.DefaultBufferSize+200)
	if err := client.Send(oversized); err != nil {
		t.Fatalf("Send oversized: %v", err)
	}
	got, err = peer.Receive()
	if err != nil {
		t.Fatalf("Receive oversized: %v", err)
	}
	if got != oversized[:channel.DefaultBufferSize-1] {
		t.Fatalf("expected truncation at %d bytes, got %d", channel.DefaultBufferSize-1, len(got))
	}
}

func TestReceiveLeavesOverflowQueued(t *testing.T) {
	ln := newListener(t)
	client, peer := connectPair(t, ln)

	payload := strings.Repeat("a", channel.DefaultBufferSize-1) + "X" + "0123456789"
	if err := client.Send(payload); err != nil {
		t.Fatalf("Send: %v", err)
	}
	first, err := peer.Receive()
	if err != nil {
		t.Fatalf("first Receive: %v", err)
	}
	if len(first) != channel.DefaultBufferSize-1 {
		t.Fatalf("first message has %d bytes, want %d", len(first), channel.DefaultBufferSize-1)
	}
	second, err := peer.Receive()
	if err != nil {
		t.Fatalf("second Receive: %v", err)
	}
	if second != "X0123456789" {
		t.Fatalf("second message = %q, want %q", second, "X0123456789")
	}
	if first+second != payload {
		t.Fatalf("received %d of %d bytes", len(first)+len(second), len(payload))
	}
}

func TestReceiveStopsAtNUL(t *testing.T) {
	ln := newListener(t)
	client, peer := connectPair(t, ln)

	if err := client.Send("ab\x00cd"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := peer.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got != "ab" {
		t.Fatalf("expected message to end at NUL, got %q", got)
	}
}

func TestReceiveReportsEOFAfterPeerClose(t *testing.T) {
	ln := newListener(t)
	client, peer := connectPair(t, ln)

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := peer.Receive(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestShutdownSignalsEOF(t *testing.T) {
	ln := newListener(t)
	client, peer := connectPair(t, ln)

	if err := peer.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := client.Receive(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after shutdown, got %v", err)
	}
	if peer.FD() < 0 {
		t.Fatal("shutdown must not release the descriptor")
	}
}

func TestSendEmptyMessageIsNoop(t *testing.T) {
	ln := newListener(t)
	client, peer := connectPair(t, ln)

	if err := client.Send(""); err != nil {
		t.Fatalf("Send empty: %v", err)
	}
	if err := client.Send("x"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := peer.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got != "x" {
		t.Fatalf("expected only the non-empty message, got %q", got)
	}
}

func TestSendWritesLargeMessagesCompletely(t *testing.T) {
	const size = 1 << 20
	// Larger than the payload so no read can hit the truncation boundary.
	ln := newListener(t, channel.WithBufferSize(size+1))
	client, peer := connectPair(t, ln)

	payload := strings.Repeat("z", size)
	done := make(chan error, 1)
	go func() {
		done <- client.Send(payload)
	}()

	total := 0
	for total < size {
		chunk, err := peer.Receive()
		if err != nil {
			t.Fatalf("Receive after %d bytes: %v", total, err)
		}
		total += len(chunk)
	}
	if err := <-done; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if total != size {
		t.Fatalf("received %d bytes, want %d", total, size)
	}
}

func TestCloseReleasesOnce(t *testing.T) {
	ch, err := channel.New()
	if err != nil {
		t.Fatalf("channel.New: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if ch.FD() != -1 {
		t.Fatalf("expected fd -1 after close, got %d", ch.FD())
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
	if err := ch.Send("x"); !errors.Is(err, channel.ErrClosed) {
		t.Fatalf("expected ErrClosed from Send, got %v", err)
	}
	if _, err := ch.Receive(); !errors.Is(err, channel.ErrClosed) {
		t.Fatalf("expected ErrClosed from Receive, got %v", err)
	}
}

func TestFromFDAdoptsListener(t *testing.T) {
	ln := newListener(t)
	dup, err := unix.Dup(ln.FD())
	if err != nil {
		t.Fatalf("dup: %v", err)
	}

	adopted, err := channel.FromFD(dup)
	if err != nil {
		t.Fatalf("FromFD: %v", err)
	}
	defer adopted.Close()

	if adopted.Addr() != ln.Addr() {
		t.Fatalf("adopted addr %q, want %q", adopted.Addr(), ln.Addr())
	}
	listening, err := adopted.Listening()
	if err != nil {
		t.Fatalf("Listening: %v", err)
	}
	if !listening {
		t.Fatal("expected adopted descriptor to be listening")
	}
}

func TestFromFDRejectsNonSocket(t *testing.T) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	if _, err := channel.FromFD(fds[0]); err == nil {
		t.Fatal("expected FromFD to reject a pipe")
	}
}

func TestFileDuplicatesDescriptor(t *testing.T) {
	ln := newListener(t)
	file, err := ln.File()
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if int(file.Fd()) == ln.FD() {
		t.Fatal("expected a distinct descriptor")
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	if listening, err := ln.Listening(); err != nil || !listening {
		t.Fatalf("listener should survive closing its duplicate: listening=%v err=%v", listening, err)
	}
}
