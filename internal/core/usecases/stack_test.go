package usecases_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/districtmap/internal/core/domain"
	"github.com/samirrijal/districtmap/internal/core/usecases"
)

func TestLayerStack(t *testing.T) {
	var s usecases.LayerStack
	s.Add(&domain.Layer{ID: "a"})
	s.Add(&domain.Layer{ID: "b"})
	s.Add(&domain.Layer{ID: "c"})

	assert.Equal(t, "c", s.Top().ID)
	assert.True(t, s.BringToFront("a"))
	assert.Equal(t, []string{"b", "c", "a"}, layerIDs(s.Snapshot()))

	// Re-adding replaces and moves to the top.
	s.Add(&domain.Layer{ID: "b", Title: "new"})
	snap := s.Snapshot()
	assert.Equal(t, []string{"c", "a", "b"}, layerIDs(snap))
	assert.Equal(t, "new", snap[2].Title)
	assert.Equal(t, 2, snap[2].Z)

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.False(t, s.BringToFront("missing"))
	assert.Equal(t, 2, s.Len())
}

func TestLayerStack_Empty(t *testing.T) {
	var s usecases.LayerStack
	assert.Nil(t, s.Top())
	assert.Empty(t, s.Snapshot())
}
