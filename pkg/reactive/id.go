package reactive

import (
	"runtime"
	"sync/atomic"
)

// globalIDCounter is the source of unique IDs for instances and hooks.
var globalIDCounter atomic.Uint64

// nextID returns the next unique ID. IDs are monotonically increasing and
// never reused, so they double as creation order.
func nextID() uint64 {
	return globalIDCounter.Add(1)
}

// goroutineID returns the id of the calling goroutine, parsed from the
// header line of its stack trace ("goroutine <id> [...]").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
