// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Command echoserver runs the edge-triggered TCP echo server.
//
// Setup failures exit with status 1. SIGINT/SIGTERM stop the loop, close every
// connection and exit with status 0.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/momentics/hioload-echo/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := server.DefaultConfig()
	flag.StringVar(&cfg.Host, "host", cfg.Host, "IPv4 address to bind")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "TCP port to listen on")
	flag.IntVar(&cfg.Backlog, "backlog", cfg.Backlog, "pending connection queue length")
	flag.IntVar(&cfg.BufferSize, "buffer", cfg.BufferSize, "bytes read per call")
	flag.BoolVar(&cfg.ReuseAddr, "reuseaddr", cfg.ReuseAddr, "set SO_REUSEADDR")
	flag.BoolVar(&cfg.ReusePort, "reuseport", cfg.ReusePort, "set SO_REUSEPORT")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address (e.g. :9100)")
	flag.Parse()

	os.Exit(run(cfg, *metricsAddr))
}

func run(cfg *server.Config, metricsAddr string) int {
	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "echoserver: %v\n", err)
		return 1
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(srv.Metrics().Registry(), promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics endpoint: %v", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Printf("received %v, shutting down", s)
		srv.Shutdown()
	}()

	if err := srv.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "echoserver: %v\n", err)
		return 1
	}
	return 0
}
