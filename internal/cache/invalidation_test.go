package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	users []uint
	all   int
}

func (r *recorder) Invalidate(userID uint) { r.users = append(r.users, userID) }
func (r *recorder) InvalidateAll()         { r.all++ }

func TestParse(t *testing.T) {
	tests := []struct {
		payload string
		user    uint
		all     bool
		wantErr bool
	}{
		{"*", 0, true, false},
		{" 42 ", 42, false, false},
		{"0", 0, false, true},
		{"-1", 0, false, true},
		{"abc", 0, false, true},
		{"", 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			user, all, err := Parse(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.user, user)
			assert.Equal(t, tt.all, all)
		})
	}
}

func TestBus_LocalOnly(t *testing.T) {
	rec := &recorder{}
	bus := NewBus(nil, "", rec, nil)
	ctx := context.Background()

	require.NoError(t, bus.InvalidateUser(ctx, 7))
	require.NoError(t, bus.InvalidateAll(ctx))

	assert.Equal(t, []uint{7}, rec.users)
	assert.Equal(t, 1, rec.all)
	assert.Equal(t, DefaultChannel, bus.channel)

	// Listen returns at once without redis.
	bus.Listen(ctx)
}

func TestBus_ApplyRejectsGarbage(t *testing.T) {
	rec := &recorder{}
	bus := NewBus(nil, "", rec, nil)

	assert.Error(t, bus.Apply("nope"))
	assert.Empty(t, rec.users)
	assert.Zero(t, rec.all)
}
