package cts

import (
	"encoding/binary"
	"time"

	"github.com/sirupsen/logrus"
)

// Payload sizes defined by the Current Time Service.
const (
	CurrentTimeLength   = 10
	LocalTimeInfoLength = 2
)

// EncodeCurrentTime encodes a timestamp as the 10-byte Current Time
// characteristic value:
//
//	bytes 0-1  year, little endian
//	byte  2    month (1-12)
//	byte  3    day of month (1-31)
//	byte  4    hour (0-23)
//	byte  5    minute (0-59)
//	byte  6    second (0-59)
//	byte  7    ISO day of week (1=Monday .. 7=Sunday)
//	byte  8    fractions of a second in 1/256 units
//	byte  9    adjust reason (always 0, no clock adjustment signaled)
func EncodeCurrentTime(t time.Time) []byte {
	b := make([]byte, CurrentTimeLength)
	binary.LittleEndian.PutUint16(b[0:2], uint16(t.Year()))
	b[2] = byte(t.Month())
	b[3] = byte(t.Day())
	b[4] = byte(t.Hour())
	b[5] = byte(t.Minute())
	b[6] = byte(t.Second())
	b[7] = byte(isoWeekday(t.Weekday()))
	b[8] = byte(t.Nanosecond() / 1000 * 256 / 1000000)
	b[9] = 0
	return b
}

// EncodeLocalTimeInfo encodes a timestamp's zone as the 2-byte Local Time
// Information characteristic value: the UTC offset in 15-minute increments
// as a signed byte (nominal range -48..+56; out-of-range offsets wrap, an
// accepted limitation), followed by the DST offset byte (always 0,
// standard time).
func EncodeLocalTimeInfo(t time.Time) []byte {
	_, offset := t.Zone()
	return []byte{byte(floorDiv(offset, 900)), 0}
}

// isoWeekday maps Go's Sunday-based weekday to ISO-8601 (1=Monday).
func isoWeekday(w time.Weekday) int {
	return (int(w)+6)%7 + 1
}

// floorDiv rounds toward negative infinity, unlike Go's truncating division.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Encoder resolves "now" in the configured zone and produces the two CTS
// payloads. The zone name is resolved on every read so the encoder tracks
// host tzdata; an unresolvable name falls back to the host local zone with
// a warning and never fails the read.
type Encoder struct {
	timezone string
	clock    Clock
	logger   *logrus.Logger
}

// NewEncoder creates an encoder for the given zone name. An empty name
// means the host local zone.
func NewEncoder(timezone string, clock Clock, logger *logrus.Logger) *Encoder {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Encoder{
		timezone: timezone,
		clock:    clock,
		logger:   logger,
	}
}

// Now returns the current wall-clock time in the encoder's zone.
func (e *Encoder) Now() time.Time {
	now := e.clock.Now()
	if e.timezone == "" {
		return now.Local()
	}
	loc, err := time.LoadLocation(e.timezone)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"timezone": e.timezone,
			"error":    err,
		}).Warn("Invalid timezone, using host local time")
		return now.Local()
	}
	return now.In(loc)
}

// CurrentTime reads the clock and returns the Current Time payload.
func (e *Encoder) CurrentTime() []byte {
	now := e.Now()
	e.logger.WithFields(logrus.Fields{
		"time": now.Format("2006-01-02 15:04:05 MST-0700"),
		"day":  isoWeekday(now.Weekday()),
	}).Info("Serving current time")
	return EncodeCurrentTime(now)
}

// LocalTimeInfo reads the clock and returns the Local Time Information
// payload.
func (e *Encoder) LocalTimeInfo() []byte {
	now := e.Now()
	_, offset := now.Zone()
	e.logger.WithFields(logrus.Fields{
		"utc_offset_seconds": offset,
		"quarters":           floorDiv(offset, 900),
	}).Info("Serving local time information")
	return EncodeLocalTimeInfo(now)
}
