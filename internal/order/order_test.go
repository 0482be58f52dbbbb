package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("paid").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusShipped.Terminal())
}

func TestOrder_CanTransitionTo(t *testing.T) {
	open := &Order{Status: StatusProcessing}
	assert.True(t, open.CanTransitionTo(StatusShipped))
	assert.True(t, open.CanTransitionTo(StatusCancelled))
	assert.False(t, open.CanTransitionTo(Status("bogus")))

	delivered := &Order{Status: StatusDelivered}
	assert.False(t, delivered.CanTransitionTo(StatusCancelled))

	cancelled := &Order{Status: StatusCancelled}
	assert.False(t, cancelled.CanTransitionTo(StatusConfirmed))
}
