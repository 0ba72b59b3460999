package config

import (
	"io"
	"time"
)

// Config reads typed configuration values by dotted key.
//
// Implementations decide how missing keys and failed conversions are
// handled; the zero value of the requested type is the usual answer.
type Config interface {
	io.Closer

	// GetBool returns the value for key as a bool.
	GetBool(key string) bool

	// GetString returns the value for key as a string.
	GetString(key string) string

	// GetInt returns the value for key as an int.
	GetInt(key string) int

	// GetInt32 returns the value for key as an int32.
	GetInt32(key string) int32

	// GetInt64 returns the value for key as an int64.
	GetInt64(key string) int64

	// GetUint returns the value for key as a uint.
	GetUint(key string) uint

	// GetFloat64 returns the value for key as a float64.
	GetFloat64(key string) float64

	// GetSecond reads the value as an integer number of seconds.
	GetSecond(key string) time.Duration

	// GetMinute reads the value as an integer number of minutes.
	GetMinute(key string) time.Duration

	// GetHour reads the value as an integer number of hours.
	GetHour(key string) time.Duration

	// GetDay reads the value as an integer number of days (24h each).
	GetDay(key string) time.Duration

	// GetBinary reads the value as base64 and returns the decoded bytes.
	GetBinary(key string) []byte

	// GetArray reads the value as a comma-separated list.
	GetArray(key string) []string

	// GetMap reads the value as comma-separated "key:value" pairs.
	GetMap(key string) map[string]string
}
