package scene

import "github.com/ryanw/byd-go/engine/renderer/binder"

// SceneBuilderOption is a functional option applied to a scene during construction via NewScene.
type SceneBuilderOption func(*scene)

// WithActive sets whether the scene starts active for rendering.
//
// Parameters:
//   - active: true to render the scene from the first frame
//
// Returns:
//   - SceneBuilderOption: a function that applies the active option to a scene
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithCapacity caps the number of live objects the scene accepts. Values
// outside (0, binder.MaxObjects] fall back to binder.MaxObjects, the most the
// per-object uniform array can address.
//
// Parameters:
//   - capacity: the maximum live object count
//
// Returns:
//   - SceneBuilderOption: a function that applies the capacity option to a scene
func WithCapacity(capacity int) SceneBuilderOption {
	return func(s *scene) {
		if capacity <= 0 || capacity > binder.MaxObjects {
			capacity = binder.MaxObjects
		}
		s.capacity = capacity
	}
}

// WithComputeWorkers sets the number of pooled goroutines used for the
// parallel uniform marshal in PrepareFrame. Defaults to NumCPU-1 with a floor
// of 1.
//
// Parameters:
//   - workers: the worker count (values < 1 are ignored)
//
// Returns:
//   - SceneBuilderOption: a function that applies the worker count option to a scene
func WithComputeWorkers(workers int) SceneBuilderOption {
	return func(s *scene) {
		if workers >= 1 {
			s.computeWorkers = workers
		}
	}
}
