package container

import (
	"crypto/rand"
	"strconv"
	"strings"
	"sync/atomic"
)

// IDPrefix starts every container id.
const IDPrefix = "cntr_"

// idSuffixLen is the number of base36 characters after the prefix.
const idSuffixLen = 16

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// IDGenerator produces container ids
type IDGenerator func() string

var (
	// sequenceCounter for SequenceID
	sequenceCounter atomic.Uint64
)

// RandomID returns a new id made of the prefix and 16 random base36 characters.
func RandomID() string {
	var b strings.Builder
	b.Grow(len(IDPrefix) + idSuffixLen)
	b.WriteString(IDPrefix)

	buf := make([]byte, idSuffixLen*2)
	for b.Len() < len(IDPrefix)+idSuffixLen {
		if _, err := rand.Read(buf); err != nil {
			panic("container: crypto/rand failed: " + err.Error())
		}
		for _, c := range buf {
			// 252 is the largest multiple of 36 below 256
			if c >= 252 {
				continue
			}
			b.WriteByte(base36[c%36])
			if b.Len() == len(IDPrefix)+idSuffixLen {
				break
			}
		}
	}
	return b.String()
}

// SequenceID returns ids counting up from cntr_0000000000000001 (useful for
// testing).
func SequenceID() string {
	seq := strconv.FormatUint(sequenceCounter.Add(1), 36)
	return IDPrefix + strings.Repeat("0", idSuffixLen-len(seq)) + seq
}

// ResetSequenceCounter resets the sequence counter (for testing)
func ResetSequenceCounter() {
	sequenceCounter.Store(0)
}

// ValidID reports whether id has the container id shape.
func ValidID(id string) bool {
	suffix, ok := strings.CutPrefix(id, IDPrefix)
	if !ok || len(suffix) != idSuffixLen {
		return false
	}
	for _, c := range suffix {
		if !strings.ContainsRune(base36, c) {
			return false
		}
	}
	return true
}
