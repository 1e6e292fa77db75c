package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 19.99, round2(19.994))
	assert.Equal(t, 20.0, round2(19.998))
	assert.Equal(t, 199.98, round2(99.99*2))
	assert.Equal(t, 0.0, round2(0))
	assert.Equal(t, -10.56, round2(-10.555))
}
