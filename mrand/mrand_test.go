package mrand

import (
	. "testing"

	"github.com/stretchr/testify/assert"
)

func TestHex(t *T) {
	for _, n := range []int{0, 1, 7, 32} {
		assert.Len(t, Hex(n), n)
	}
}

func TestPartition(t *T) {
	r := New(1)
	for i := 0; i < 100; i++ {
		n, max := r.Intn(1000), 1+r.Intn(64)
		sizes := r.Partition(n, max)
		var sum int
		for _, s := range sizes {
			assert.True(t, s > 0 && s <= max, "size:%d max:%d", s, max)
			sum += s
		}
		assert.Equal(t, n, sum)
	}
	assert.Nil(t, r.Partition(0, 5))
}
