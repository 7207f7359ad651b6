package rangeintern

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntern_EqualValuesShareOneAllocation(t *testing.T) {
	table := New()

	a := table.Intern(Range{StartByte: 10, EndByte: 20, StartLine: 1, EndLine: 1})
	b := table.Intern(Range{StartByte: 10, EndByte: 20, StartLine: 1, EndLine: 1})

	assert.Same(t, a, b)
	assert.Equal(t, 1, table.Len())
}

func TestIntern_DistinctValuesGetDistinctAllocations(t *testing.T) {
	table := New()

	a := table.Intern(Range{StartByte: 10, EndByte: 20})
	b := table.Intern(Range{StartByte: 10, EndByte: 21})

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, table.Len())
}

func TestIntern_EmptyRangeIsCanonical(t *testing.T) {
	table := New()

	a := table.Intern(Empty)
	b := table.Intern(Range{})

	assert.Same(t, a, b)
	assert.True(t, a.IsEmpty())
}

func TestIntern_ConcurrentInternConverges(t *testing.T) {
	table := New()
	const goroutines = 64

	results := make([]*Range, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)

	r := Range{StartByte: 5, EndByte: 15, StartLine: 2, StartCol: 3, EndLine: 2, EndCol: 13}
	for i := 0; i < goroutines; i++ {
		i := i
		go func() {
			defer wg.Done()
			results[i] = table.Intern(r)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, table.Len())
	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
}
