package bookingstatus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlocking(t *testing.T) {
	assert.Equal(t, []Status{Pending, Approved}, Blocking())
	assert.Equal(t, []string{"pending", "approved"}, BlockingStrings())

	for _, s := range []Status{Pending, Approved, Rejected, Cancelled, Completed} {
		assert.True(t, s.Valid(), s)
		assert.Equal(t, s == Pending || s == Approved, s.BlocksCalendar(), s)
	}
	assert.False(t, Status("archived").Valid())
	assert.False(t, Status("archived").BlocksCalendar())
}

func TestBlockingReturnsCopy(t *testing.T) {
	b := Blocking()
	b[0] = Completed
	assert.Equal(t, Pending, Blocking()[0])
}
