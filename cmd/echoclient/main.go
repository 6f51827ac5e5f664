// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Command echoclient sends lines typed on stdin to the echo server and
// prints each reply. Typing "exit" or closing stdin ends the session.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/momentics/hioload-echo/client"
)

func main() {
	cfg := client.DefaultConfig()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server address")
	flag.DurationVar(&cfg.ReadTimeout, "timeout", 10*time.Second, "reply timeout, 0 waits forever")
	flag.Parse()

	c, err := client.Dial(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to server: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	if err := c.Run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		c.Close()
		os.Exit(1)
	}
}
