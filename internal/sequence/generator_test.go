package sequence

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		seq    int64
		want   string
	}{
		{
			name:   "zero padded",
			prefix: "USR",
			seq:    42,
			want:   "USR000042",
		},
		{
			name:   "first value",
			prefix: "USR",
			seq:    1,
			want:   "USR000001",
		},
		{
			name:   "wider than padding",
			prefix: "ORD",
			seq:    1234567,
			want:   "ORD1234567",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.prefix, tt.seq))
		})
	}
}

func TestMemoryGenerator_Next(t *testing.T) {
	gen := NewMemoryGenerator()

	first, err := gen.Next(context.Background(), "USR")
	require.NoError(t, err)
	assert.Equal(t, "USR000001", first)

	second, err := gen.Next(context.Background(), "USR")
	require.NoError(t, err)
	assert.Equal(t, "USR000002", second)

	// Independent counter per prefix
	other, err := gen.Next(context.Background(), "ORD")
	require.NoError(t, err)
	assert.Equal(t, "ORD000001", other)
}

func TestMemoryGenerator_ConcurrentNext(t *testing.T) {
	const n = 200

	gen := NewMemoryGenerator()

	var wg sync.WaitGroup
	ids := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := gen.Next(context.Background(), "USR")
			assert.NoError(t, err)
			ids <- id
		}()
	}

	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	var all []string
	for id := range ids {
		assert.False(t, seen[id], "identifier %s issued twice", id)
		seen[id] = true
		all = append(all, id)
	}

	require.Len(t, all, n)

	// No gaps: the set of issued ids is exactly 1..n
	sort.Strings(all)
	for i, id := range all {
		assert.Equal(t, Format("USR", int64(i+1)), id)
	}
}
