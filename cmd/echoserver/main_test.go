//go:build linux

package main

import (
	"io"
	"log"
	"net"
	"testing"

	"github.com/momentics/hioload-echo/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExitsNonZeroWhenPortIsTaken(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := server.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	cfg.Logger = log.New(io.Discard, "", 0)
	assert.Equal(t, 1, run(cfg, ""))
}
