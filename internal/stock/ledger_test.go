package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5))
	assert.Equal(t, 0, Clamp(0))
	assert.Equal(t, 7, Clamp(7))
}

func TestOversoldErrorMessage(t *testing.T) {
	err := &OversoldError{ProductID: "p1", Date: "2024-06-01", Requested: 4, Available: 1}
	assert.Contains(t, err.Error(), "requested 4")
	assert.Contains(t, err.Error(), "available 1")
}
