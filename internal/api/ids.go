package api

import (
	"strconv"
	"strings"
	"time"
)

// ParseID parses a decimal user, invitation or run id.
func ParseID(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
}

func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// UnixMilli converts t for the wire. The zero time maps to 0.
func UnixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
