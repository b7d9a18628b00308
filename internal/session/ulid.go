package session

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Session and message IDs are ULIDs: a 48-bit millisecond timestamp
// followed by 80 random bits, rendered as 26 Crockford Base32 characters.
// The alphabet sorts ascending, so IDs order by creation time.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

// NewID returns a fresh ULID. A 16-bit sequence counter in the first two
// random bytes keeps IDs issued within the same millisecond ordered.
func NewID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], ts<<16)
	rand.Read(b[6:])
	binary.BigEndian.PutUint16(b[6:8], lastSeq)

	return encodeBase32(b)
}

// encodeBase32 renders 128 bits as 26 characters, 5 bits per character
// from the least significant end. The top two bits of the leading
// character are always zero.
func encodeBase32(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])

	var out [26]byte
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
