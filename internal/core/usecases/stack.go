package usecases

import "github.com/samirrijal/districtmap/internal/core/domain"

// LayerStack keeps map layers in draw order, bottom first.
type LayerStack struct {
	layers []*domain.Layer
}

// Add puts the layer on top. A layer with the same ID is removed first.
func (s *LayerStack) Add(l *domain.Layer) {
	s.Remove(l.ID)
	s.layers = append(s.layers, l)
}

// Remove drops the layer with the given ID and reports whether it was present.
func (s *LayerStack) Remove(id string) bool {
	for i, l := range s.layers {
		if l.ID == id {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return true
		}
	}
	return false
}

// BringToFront moves the layer with the given ID to the top.
func (s *LayerStack) BringToFront(id string) bool {
	l := s.Get(id)
	if l == nil {
		return false
	}
	s.Remove(id)
	s.layers = append(s.layers, l)
	return true
}

// Get returns the layer with the given ID, or nil.
func (s *LayerStack) Get(id string) *domain.Layer {
	for _, l := range s.layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Top returns the topmost layer, or nil when the stack is empty.
func (s *LayerStack) Top() *domain.Layer {
	if len(s.layers) == 0 {
		return nil
	}
	return s.layers[len(s.layers)-1]
}

// Len returns the number of layers.
func (s *LayerStack) Len() int { return len(s.layers) }

// Snapshot copies the layers in draw order with Z set to their position.
func (s *LayerStack) Snapshot() []domain.Layer {
	out := make([]domain.Layer, len(s.layers))
	for i, l := range s.layers {
		out[i] = *l
		out[i].Z = i
	}
	return out
}
