// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements the raw, non-blocking TCP listener and connection
// handles driven by the echo event loop. Descriptors are owned values with a
// single release point.
package tcp
