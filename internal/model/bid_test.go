package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestBidBounds(t *testing.T) {
    min, max := BidBounds(100)
    assert.Equal(t, 95.0, min)
    assert.Equal(t, 105.0, max)

    min, max = BidBounds(2.5)
    assert.Equal(t, -2.5, min)
    assert.Equal(t, 7.5, max)
}

func TestBidInBand(t *testing.T) {
    // bounds are inclusive on both sides
    assert.True(t, BidInBand(100, 95))
    assert.True(t, BidInBand(100, 105))
    assert.True(t, BidInBand(100, 100))
    assert.False(t, BidInBand(100, 94.99))
    assert.False(t, BidInBand(100, 105.01))
    assert.False(t, BidInBand(100, 200))
}
