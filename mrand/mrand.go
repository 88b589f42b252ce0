// Package mrand implements extensions and conveniences for using the default
// math/rand package.
package mrand

import (
	"encoding/hex"
	"math/rand"
	"time"
)

// Rand extends the default rand.Rand type with extra functionality.
type Rand struct {
	*rand.Rand
}

// New returns a Rand seeded with the given value.
func New(seed int64) Rand {
	return Rand{Rand: rand.New(rand.NewSource(seed))}
}

// Bytes returns n random bytes.
func (r Rand) Bytes(n int) []byte {
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		panic(err)
	}
	return b
}

// Hex returns a random hex string which is n characters long.
func (r Rand) Hex(n int) string {
	origN := n
	if n%2 == 1 {
		n++
	}
	b := r.Bytes(hex.DecodedLen(n))
	return hex.EncodeToString(b)[:origN]
}

// Partition splits n into a random sequence of positive sizes which sum to
// n, each at most max. It returns nil if n is zero.
func (r Rand) Partition(n, max int) []int {
	var sizes []int
	for n > 0 {
		size := 1 + r.Intn(max)
		if size > n {
			size = n
		}
		sizes = append(sizes, size)
		n -= size
	}
	return sizes
}

////////////////////////////////////////////////////////////////////////////////

// DefaultRand is an instance off Rand whose methods are directly exported by
// this package for convenience.
var DefaultRand = New(time.Now().UnixNano())

// Methods off DefaultRand exported to the top level of this package.
var (
	Int       = DefaultRand.Int
	Int63     = DefaultRand.Int63
	Intn      = DefaultRand.Intn
	Perm      = DefaultRand.Perm
	Bytes     = DefaultRand.Bytes
	Hex       = DefaultRand.Hex
	Partition = DefaultRand.Partition
)
