package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCouponIsValid(t *testing.T) {
	now := time.Now()
	base := Coupon{
		BaseModel:  BaseModel{IsActive: true},
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(time.Hour),
	}

	assert.True(t, base.IsValid(now))

	inactive := base
	inactive.IsActive = false
	assert.False(t, inactive.IsValid(now))

	early := base
	early.ValidFrom = now.Add(time.Minute)
	assert.False(t, early.IsValid(now))

	expired := base
	expired.ValidUntil = now.Add(-time.Minute)
	assert.False(t, expired.IsValid(now))

	exhausted := base
	exhausted.UsageLimit = intPtr(3)
	exhausted.UsedCount = 3
	assert.False(t, exhausted.IsValid(now))

	remaining := base
	remaining.UsageLimit = intPtr(3)
	remaining.UsedCount = 2
	assert.True(t, remaining.IsValid(now))
}

func TestOrderCanBeCancelled(t *testing.T) {
	assert.True(t, (&Order{Status: OrderStatusPending}).CanBeCancelled())
	assert.True(t, (&Order{Status: OrderStatusConfirmed}).CanBeCancelled())
	assert.False(t, (&Order{Status: OrderStatusShipped}).CanBeCancelled())
	assert.False(t, (&Order{Status: OrderStatusCancelled}).CanBeCancelled())
}

func TestOrderItemTotalPrice(t *testing.T) {
	item := OrderItem{UnitPrice: 19.99, Quantity: 3}
	assert.InDelta(t, 59.97, item.TotalPrice(), 0.001)
}

func TestAddressSnapshotCopiesFields(t *testing.T) {
	address := Address{
		FirstName:    "Ada",
		AddressLine1: "1 Main St",
		City:         "Springfield",
		Country:      "US",
	}

	snapshot := address.Snapshot()
	assert.Equal(t, "Ada", snapshot["first_name"])
	assert.Equal(t, "Springfield", snapshot["city"])

	// The snapshot is detached from the source record.
	address.City = "Shelbyville"
	assert.Equal(t, "Springfield", snapshot["city"])
}
