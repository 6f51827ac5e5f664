// Package pool
// Author: momentics <momentics@gmail.com>
//
// Buffer recycling for the echo event loop: the loop's read buffer and the
// chunks queued after short writes come from a BytePool.
package pool
