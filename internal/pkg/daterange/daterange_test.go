package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := Parse(s)
	require.NoError(t, err)
	return v
}

func TestNights(t *testing.T) {
	assert.Equal(t, 3, Nights(d(t, "2024-01-01"), d(t, "2024-01-04")))
	assert.Equal(t, 29, Nights(d(t, "2024-02-01"), d(t, "2024-03-01")))
	// DST in local zones must not matter
	assert.Equal(t, 1, Nights(d(t, "2024-03-30"), d(t, "2024-03-31")))
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name   string
		a, b   [2]string
		expect bool
	}{
		{"inside", [2]string{"2024-02-01", "2024-02-10"}, [2]string{"2024-02-05", "2024-02-07"}, true},
		{"identical", [2]string{"2024-02-01", "2024-02-10"}, [2]string{"2024-02-01", "2024-02-10"}, true},
		{"back to back", [2]string{"2024-02-01", "2024-02-10"}, [2]string{"2024-02-10", "2024-02-12"}, false},
		{"ends at start", [2]string{"2024-02-05", "2024-02-10"}, [2]string{"2024-02-01", "2024-02-05"}, false},
		{"straddles start", [2]string{"2024-02-05", "2024-02-10"}, [2]string{"2024-02-01", "2024-02-06"}, true},
		{"disjoint", [2]string{"2024-02-01", "2024-02-03"}, [2]string{"2024-03-01", "2024-03-03"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Range{Start: d(t, tt.a[0]), End: d(t, tt.a[1])}
			b := Range{Start: d(t, tt.b[0]), End: d(t, tt.b[1])}
			assert.Equal(t, tt.expect, a.Overlaps(b))
			assert.Equal(t, tt.expect, b.Overlaps(a), "overlap must be symmetric")
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("01/02/2024")
	assert.Error(t, err)
}
