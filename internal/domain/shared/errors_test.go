package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCode(t *testing.T) {
	t.Run("matches a direct domain error", func(t *testing.T) {
		assert.True(t, IsCode(ErrNotFound, "NOT_FOUND"))
		assert.False(t, IsCode(ErrNotFound, "INVALID_STATE"))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("load batch: %w", ErrConcurrentModification)
		assert.True(t, IsCode(err, "CONCURRENT_MODIFICATION"))

		deep := fmt.Errorf("sell: %w", err)
		assert.True(t, IsCode(deep, "CONCURRENT_MODIFICATION"))
	})

	t.Run("rejects non-domain errors", func(t *testing.T) {
		assert.False(t, IsCode(errors.New("plain"), "NOT_FOUND"))
		assert.False(t, IsCode(nil, "NOT_FOUND"))
	})

	t.Run("formatted errors carry their code", func(t *testing.T) {
		err := NewDomainErrorf("INSUFFICIENT_STOCK", "short %d units", 5)
		assert.True(t, IsCode(err, "INSUFFICIENT_STOCK"))
		assert.Equal(t, "short 5 units", err.Error())
	})
}
