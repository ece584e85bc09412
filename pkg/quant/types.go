package quant

import (
	"sync/atomic"
	"time"
)

// TimeStamp represents Unix Microseconds.
type TimeStamp int64

// Now returns the current wall clock as a TimeStamp.
func Now() TimeStamp {
	return TimeStamp(time.Now().UnixMicro())
}

// FromUnixSeconds converts an API-reported Unix second value to TimeStamp.
func FromUnixSeconds(sec int64) TimeStamp {
	return TimeStamp(sec * 1_000_000)
}

// Time converts the TimeStamp back to time.Time (UTC).
func (t TimeStamp) Time() time.Time {
	return time.UnixMicro(int64(t)).UTC()
}

// NextSeq generates the next sequence number atomically.
func NextSeq(ptr *uint64) uint64 {
	return atomic.AddUint64(ptr, 1)
}
