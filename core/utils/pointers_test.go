package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPtrEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *int
		want bool
	}{
		{"BothNil", nil, nil, true},
		{"LeftNil", nil, Ptr(1), false},
		{"RightNil", Ptr(1), nil, false},
		{"Equal", Ptr(2), Ptr(2), true},
		{"Different", Ptr(2), Ptr(3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PtrEqual(tt.a, tt.b))
		})
	}
}

func TestTimePtrEqual(t *testing.T) {
	utc := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sameInstant := utc.In(time.FixedZone("CEST", 2*3600))

	assert.True(t, TimePtrEqual(nil, nil))
	assert.True(t, TimePtrEqual(&utc, &sameInstant))
	assert.False(t, TimePtrEqual(&utc, nil))
	later := utc.Add(time.Second)
	assert.False(t, TimePtrEqual(&utc, &later))
}

func TestCoalesceAndDeref(t *testing.T) {
	assert.Equal(t, 1, *Coalesce(Ptr(1), Ptr(2)))
	assert.Equal(t, 2, *Coalesce(nil, Ptr(2)))
	assert.Nil(t, Coalesce[int](nil, nil))
	assert.Equal(t, "", Deref[string](nil))
	assert.Equal(t, "x", Deref(Ptr("x")))
}
