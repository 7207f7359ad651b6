package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgeDropSampler_SamplesFirstNPerReason(t *testing.T) {
	sampler := NewEdgeDropSampler(5)

	var logged int
	for i := 0; i < 8; i++ {
		count, shouldLog := sampler.Record("definition")
		assert.Equal(t, i+1, count)
		if shouldLog {
			logged++
		}
	}

	assert.Equal(t, 5, logged)
	assert.Equal(t, 8, sampler.Counts()["definition"])
}

func TestEdgeDropSampler_SamplesIndependentlyPerReason(t *testing.T) {
	sampler := NewEdgeDropSampler(5)

	for i := 0; i < 3; i++ {
		sampler.Record("directory")
	}
	for i := 0; i < 6; i++ {
		sampler.Record("file")
	}

	counts := sampler.Counts()
	assert.Equal(t, 3, counts["directory"])
	assert.Equal(t, 6, counts["file"])

	_, logOnSeventh := sampler.Record("file")
	assert.False(t, logOnSeventh)

	_, logOnFourth := sampler.Record("directory")
	assert.True(t, logOnFourth)
}
