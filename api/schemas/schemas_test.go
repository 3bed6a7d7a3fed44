// File: api/schemas/schemas_test.go
package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMarketEntity(t *testing.T) {
	e := NewMarketEntity(SignalFashionEvents, "https://example.com/events")

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, SignalFashionEvents, e.SignalType)
	assert.Equal(t, "https://example.com/events", e.SourceURL)
	assert.Equal(t, "ariadne", e.SourceMethod)
	assert.Equal(t, "active", e.EventStatus)
	assert.False(t, e.FoundAt.IsZero())
	assert.Equal(t, e.FoundAt, e.CreatedAt)

	other := NewMarketEntity(SignalFashionEvents, "https://example.com/events")
	assert.NotEqual(t, e.ID, other.ID)
}

func TestRunHistory_LastResults(t *testing.T) {
	h := &RunHistory{
		Steps: []StepRecord{
			{Step: 1, Results: []ActionResult{{ExtractedContent: "first"}}},
			{Step: 2, Results: []ActionResult{{ExtractedContent: "second"}}},
		},
	}

	require.Len(t, h.LastResults(2), 1)
	assert.Equal(t, "first", h.LastResults(2)[0].ExtractedContent)
	assert.Nil(t, h.LastResults(1))
	assert.Nil(t, h.LastResults(0))

	var nilHistory *RunHistory
	assert.Nil(t, nilHistory.LastResults(2))
}

func TestRunHistory_FinalOrDefault(t *testing.T) {
	assert.Equal(t, "done", (&RunHistory{FinalResult: "done"}).FinalOrDefault())
	assert.Equal(t, "Task completed but no history is available", (&RunHistory{}).FinalOrDefault())

	var nilHistory *RunHistory
	assert.Equal(t, "Task completed but no history is available", nilHistory.FinalOrDefault())
}
