package job

import (
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestKeyLayout(t *testing.T) {
	id := "0b5e3c8e-1d36-4a4e-9f0f-7b1f0f2a6c11"

	assert.Equal(t, "voicegen:job:"+id, jobKey(id))
	assert.Equal(t, "voicegen:job:"+id+":progress", progressKey(id))
	assert.NotEqual(t, jobKey(id), progressKey(id))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{
			name: "absent key maps to not found",
			in:   redis.Nil,
			want: ErrNotFound,
		},
		{
			name: "wrapped nil reply maps to not found",
			in:   errors.Join(redis.Nil),
			want: ErrNotFound,
		},
		{
			name: "connection error maps to store unavailable",
			in:   errors.New("dial tcp 127.0.0.1:6379: connection refused"),
			want: ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("get job", tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
