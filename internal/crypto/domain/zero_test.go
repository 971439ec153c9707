package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	t.Run("overwrites contents", func(t *testing.T) {
		key := []byte{0xde, 0xad, 0xbe, 0xef}
		Zero(key)
		assert.Equal(t, make([]byte, len(key)), key)
	})

	t.Run("nil slice is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() { Zero(nil) })
	})

	t.Run("empty slice", func(t *testing.T) {
		b := []byte{}
		assert.NotPanics(t, func() { Zero(b) })
	})

	t.Run("master key sized slice", func(t *testing.T) {
		key := bytes.Repeat([]byte{0xaa}, 32)
		Zero(key)
		assert.Equal(t, make([]byte, 32), key)
	})
}
