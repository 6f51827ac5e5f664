// File: client/client.go
// Package client provides the interactive line client for the echo server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Each input line is sent without its line terminator and the client waits
// until the same number of bytes has come back.

package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/momentics/hioload-echo/api"
)

// ClientConfig holds all configurable parameters for the echo client.
type ClientConfig struct {
	Addr        string        // server host:port
	DialTimeout time.Duration // connect timeout, 0 = none
	ReadTimeout time.Duration // per-reply deadline, 0 = none
	Prompt      string        // printed before each line is read
	ExitWord    string        // input line that ends the session
}

// DefaultConfig returns the settings used by cmd/echoclient.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Addr:        "127.0.0.1:9527",
		DialTimeout: 5 * time.Second,
		Prompt:      "Enter message to send to server (or 'exit' to quit): ",
		ExitWord:    "exit",
	}
}

// Client is a blocking connection to an echo server.
type Client struct {
	cfg  ClientConfig
	conn net.Conn
}

// Dial connects to cfg.Addr.
func Dial(cfg ClientConfig) (*Client, error) {
	conn, err := net.DialTimeout("tcp", cfg.Addr, cfg.DialTimeout)
	if err != nil {
		return nil, api.SetupError("connect", err).WithContext("addr", cfg.Addr)
	}
	return &Client{cfg: cfg, conn: conn}, nil
}

// Exchange sends msg and returns the echoed bytes.
func (c *Client) Exchange(msg []byte) ([]byte, error) {
	if len(msg) == 0 {
		return nil, nil
	}
	if _, err := c.conn.Write(msg); err != nil {
		return nil, api.ConnectionError("send", err)
	}
	if c.cfg.ReadTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
			return nil, api.ConnectionError("receive", err)
		}
	}
	reply := make([]byte, len(msg))
	if _, err := io.ReadFull(c.conn, reply); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = api.ErrPeerClosed
		}
		return nil, api.ConnectionError("receive", err)
	}
	return reply, nil
}

// MaxLineSize bounds a single input line in Run.
const MaxLineSize = 16 << 20

// Run reads lines from in until the exit word or end of input, echoing each
// through the server and printing the reply to out. Lines longer than
// MaxLineSize end the session with bufio.ErrTooLong.
func (c *Client) Run(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for {
		fmt.Fprint(out, c.cfg.Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == c.cfg.ExitWord {
			return nil
		}
		if line == "" {
			continue
		}
		reply, err := c.Exchange([]byte(line))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Received from server: %s\n", reply)
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
