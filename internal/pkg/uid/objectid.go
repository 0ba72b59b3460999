package uid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// ErrNoNodeIdentity indicates no stable node identity could be derived.
var ErrNoNodeIdentity = errors.New("uid: cannot determine stable node identity (machine-id/hostname unavailable)")

// ObjectIDGenerator produces 32-byte collision-resistant IDs as hex,
// layed out as timestamp + node + pid + counter + random.
type ObjectIDGenerator struct {
	nodeID  [6]byte
	pid     uint16
	counter uint32
}

// NewObjectIDGenerator seeds a generator from the machine identity.
func NewObjectIDGenerator() (*ObjectIDGenerator, error) {
	g := &ObjectIDGenerator{pid: uint16(os.Getpid())}

	src, err := nodeIdentity()
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(src))
	copy(g.nodeID[:], sum[:6])

	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, err
	}
	g.counter = uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])

	return g, nil
}

func nodeIdentity() (string, error) {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}
	if h, err := os.Hostname(); err == nil {
		if h = strings.TrimSpace(h); h != "" {
			return h, nil
		}
	}
	return "", ErrNoNodeIdentity
}

// Generate returns a 64-character hex string.
func (g *ObjectIDGenerator) Generate() string {
	var raw [32]byte

	// 6-byte millisecond timestamp, big-endian
	ts := uint64(time.Now().UnixMilli())
	raw[0] = byte(ts >> 40)
	raw[1] = byte(ts >> 32)
	raw[2] = byte(ts >> 24)
	raw[3] = byte(ts >> 16)
	raw[4] = byte(ts >> 8)
	raw[5] = byte(ts)

	copy(raw[6:12], g.nodeID[:])

	raw[12] = byte(g.pid >> 8)
	raw[13] = byte(g.pid)

	c := atomic.AddUint32(&g.counter, 1)
	raw[14] = byte(c >> 24)
	raw[15] = byte(c >> 16)
	raw[16] = byte(c >> 8)
	raw[17] = byte(c)

	// 14 random bytes; deterministic fallback keeps IDs unique per counter
	if _, err := rand.Read(raw[18:]); err != nil {
		sum := sha256.Sum256(raw[:18])
		copy(raw[18:], sum[:14])
	}

	var buf [64]byte
	hex.Encode(buf[:], raw[:])
	return string(buf[:])
}
