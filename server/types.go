package server

import (
	"log"
	"os"
)

// Config holds all server-side configuration parameters.
type Config struct {
	Host       string      // IPv4 bind address; "" or "0.0.0.0" binds all interfaces
	Port       int         // TCP port, 0 lets the kernel choose
	Backlog    int         // pending-connection queue length
	BufferSize int         // bytes read per call on a client connection
	MaxEvents  int         // readiness events collected per wait
	ReuseAddr  bool        // SO_REUSEADDR on the listening socket
	ReusePort  bool        // SO_REUSEPORT on the listening socket
	Logger     *log.Logger // console log, defaults to stderr
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:       "0.0.0.0",
		Port:       9527,
		Backlog:    1024,
		BufferSize: 1024,
		MaxEvents:  1024,
		ReuseAddr:  true,
		ReusePort:  true,
		Logger:     log.New(os.Stderr, "[echo] ", log.LstdFlags),
	}
}
