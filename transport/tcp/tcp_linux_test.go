//go:build linux

package tcp_test

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/pool"
	"github.com/momentics/hioload-echo/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func listen(t *testing.T, opts tcp.BindOptions) (*tcp.Listener, string) {
	t.Helper()
	l, err := tcp.Bind("127.0.0.1", 0, opts)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	require.NoError(t, l.Listen(tcp.DefaultBacklog))
	addr, err := l.Addr()
	require.NoError(t, err)
	return l, addr.String()
}

// acceptOne polls the non-blocking listener until a connection arrives.
func acceptOne(t *testing.T, l *tcp.Listener) *tcp.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := l.Accept()
		if err == nil {
			t.Cleanup(func() { c.Close() })
			return c
		}
		require.ErrorIs(t, err, api.ErrWouldBlock)
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no connection accepted")
	return nil
}

func readAvailable(t *testing.T, c *tcp.Conn, want int) []byte {
	t.Helper()
	var got []byte
	buf := make([]byte, 256)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < want && time.Now().Before(deadline) {
		n, err := c.Read(buf)
		if errors.Is(err, api.ErrWouldBlock) {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	return got
}

func TestListenerAcceptWouldBlockWhenEmpty(t *testing.T) {
	l, _ := listen(t, tcp.BindOptions{ReuseAddr: true})
	_, err := l.Accept()
	assert.ErrorIs(t, err, api.ErrWouldBlock)
}

func TestListenerAcceptsAndReportsPeer(t *testing.T) {
	l, addr := listen(t, tcp.BindOptions{ReuseAddr: true, ReusePort: true})
	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()

	c := acceptOne(t, l)
	assert.Equal(t, client.LocalAddr().String(), c.RemoteAddr())
	assert.True(t, c.IsOpen())
	assert.Greater(t, c.FD(), 0)
}

func TestListenerAddrResolvesEphemeralPort(t *testing.T) {
	_, addr := listen(t, tcp.BindOptions{})
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.NotEqual(t, "0", port)
}

func TestBindConflictIsSetupError(t *testing.T) {
	_, addr := listen(t, tcp.BindOptions{ReuseAddr: true})
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	require.NoError(t, err)

	_, err = tcp.Bind("127.0.0.1", tcpAddr.Port, tcp.BindOptions{})
	require.Error(t, err)
	assert.Equal(t, api.KindSetup, api.KindOf(err))
	assert.True(t, api.IsFatal(err))
}

func TestBindRejectsNonIPv4(t *testing.T) {
	_, err := tcp.Bind("::1", 0, tcp.BindOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	assert.Equal(t, api.KindSetup, api.KindOf(err))
}

func TestConnReadWriteAndPeerShutdown(t *testing.T) {
	l, addr := listen(t, tcp.BindOptions{ReuseAddr: true})
	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()
	c := acceptOne(t, l)

	_, err = c.Read(make([]byte, 16))
	assert.ErrorIs(t, err, api.ErrWouldBlock)

	_, err = client.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), readAvailable(t, c, 5))

	n, err := c.Write([]byte("world"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	reply := make([]byte, 5)
	_, err = io.ReadFull(client, reply)
	require.NoError(t, err)
	assert.Equal(t, "world", string(reply))

	require.NoError(t, client.(*net.TCPConn).CloseWrite())
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err = c.Read(make([]byte, 16))
		if !errors.Is(err, api.ErrWouldBlock) || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.ErrorIs(t, err, io.EOF)
}

func TestConnQueueFlush(t *testing.T) {
	p := pool.NewBytePool(8)
	l, addr := listen(t, tcp.BindOptions{Pool: p})
	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()
	c := acceptOne(t, l)

	c.Enqueue([]byte("abc"))
	c.Enqueue([]byte("0123456789")) // larger than a pooled chunk
	c.Enqueue(nil)
	assert.Equal(t, 13, c.Pending())
	assert.EqualValues(t, 1, p.InUse())

	require.NoError(t, c.Flush())
	assert.Equal(t, 0, c.Pending())
	assert.EqualValues(t, 0, p.InUse())

	reply := make([]byte, 13)
	_, err = io.ReadFull(client, reply)
	require.NoError(t, err)
	assert.Equal(t, "abc0123456789", string(reply))
}

func TestConnCloseIsIdempotent(t *testing.T) {
	p := pool.NewBytePool(8)
	l, addr := listen(t, tcp.BindOptions{Pool: p})
	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()
	c := acceptOne(t, l)

	c.Enqueue([]byte("left"))
	require.NoError(t, c.Close())
	assert.False(t, c.IsOpen())
	assert.Equal(t, 0, c.Pending())
	assert.EqualValues(t, 0, p.InUse(), "queued chunks are returned on close")
	assert.NoError(t, c.Close())

	_, err = c.Read(make([]byte, 1))
	assert.ErrorIs(t, err, api.ErrClosed)
	_, err = c.Write([]byte("x"))
	assert.ErrorIs(t, err, api.ErrClosed)
}

func TestIsTransientAcceptError(t *testing.T) {
	cases := []struct {
		err       error
		transient bool
	}{
		{api.AcceptError(unix.ECONNABORTED), true},
		{api.AcceptError(unix.EINTR), true},
		{api.AcceptError(unix.EPROTO), true},
		{api.AcceptError(unix.EPERM), true},
		{api.AcceptError(unix.EMFILE), false},
		{api.AcceptError(unix.ENFILE), false},
		{api.AcceptError(unix.ENOMEM), false},
		{api.AcceptError(unix.ENOBUFS), false},
		{api.AcceptError(api.ErrClosed), false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.transient, tcp.IsTransientAcceptError(tc.err), "%v", tc.err)
		// Terminal or not, an accept failure never stops the service.
		assert.False(t, api.IsFatal(tc.err), "%v", tc.err)
	}
}

func TestAcceptOnClosedListenerIsAcceptError(t *testing.T) {
	l, _ := listen(t, tcp.BindOptions{})
	require.NoError(t, l.Close())
	_, err := l.Accept()
	require.Error(t, err)
	assert.Equal(t, api.KindAccept, api.KindOf(err))
	assert.False(t, tcp.IsTransientAcceptError(err))
}
