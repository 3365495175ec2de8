package gamebryo

import (
	"encoding/binary"
	"time"
)

// fileTimeEpochDelta is the number of 100ns intervals between 1601-01-01
// and the Unix epoch.
const fileTimeEpochDelta = 116444736000000000

// systemTime converts a Windows SYSTEMTIME. Invalid dates report false.
func systemTime(b [16]byte) (time.Time, bool) {
	field := func(i int) int { return int(binary.LittleEndian.Uint16(b[i*2:])) }
	year, month, day := field(0), field(1), field(3)
	hour, minute, second, ms := field(4), field(5), field(6), field(7)

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 || ms > 999 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, ms*int(time.Millisecond), time.UTC), true
}

// fileTime converts a Windows FILETIME. Zero and pre-epoch values report
// false.
func fileTime(ft uint64) (time.Time, bool) {
	if ft <= fileTimeEpochDelta {
		return time.Time{}, false
	}
	ticks := ft - fileTimeEpochDelta
	return time.Unix(int64(ticks/1e7), int64(ticks%1e7)*100).UTC(), true
}
