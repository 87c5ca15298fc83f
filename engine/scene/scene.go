// Package scene manages the set of drawable objects, their deferred mount and
// unmount against GPU resources, and the per-frame uniform preparation that
// feeds the renderer. Objects are registered from any goroutine; structural
// changes are queued and applied by Resolve on the render goroutine, so GPU
// work never races with gameplay code.
package scene

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/ryanw/byd-go/common"
	"github.com/ryanw/byd-go/engine/camera"
	"github.com/ryanw/byd-go/engine/logger"
	"github.com/ryanw/byd-go/engine/renderer"
	"github.com/ryanw/byd-go/engine/renderer/binder"
)

// ErrSceneFull reports that the scene holds as many objects as the per-object
// uniform array can address. Add fails fast instead of mounting past capacity.
var ErrSceneFull = errors.New("scene is at object capacity")

// mountEntry pairs a mounted object with its dense uniform slot. The object is
// kept here after removal from the registry so unmount can still free its
// geometry.
type mountEntry struct {
	obj  SceneObject
	slot int
}

// Scene holds drawable objects and drives their GPU lifecycle. Thread-safe:
// Add, Remove, Get, and Update may run on the tick goroutine while Resolve,
// PrepareFrame, and DrawCalls run on the render goroutine.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Count returns the number of live objects: mounted plus pending mounts.
	//
	// Returns:
	//   - int: the live object count
	Count() int

	// Add registers an object and queues it for mounting on the next Resolve.
	// The assigned id is stored on the object and returned; ids are monotonic
	// and never reused, even after removal.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the assigned object id (never 0)
	//   - error: ErrSceneFull when the scene is at capacity
	Add(obj SceneObject) (uint64, error)

	// Get retrieves a live object by id. Returns nil after removal, even if
	// the unmount has not been resolved yet.
	//
	// Parameters:
	//   - id: the object's id
	//
	// Returns:
	//   - SceneObject: the object or nil
	Get(id uint64) SceneObject

	// Remove queues a live object for unmounting on the next Resolve.
	// Removing an unknown or already-removed id is a no-op. An object added
	// and removed between two Resolves is never mounted at all.
	//
	// Parameters:
	//   - id: the object's id
	Remove(id uint64)

	// Clear removes every live object. GPU resources are freed on the next
	// Resolve.
	Clear()

	// Update advances every live object's per-tick behavior.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last tick in seconds
	Update(deltaTime float32)

	// Resolve applies queued structural changes: unmounts removed objects
	// (freeing their geometry and uniform slots) and then mounts pending
	// objects (acquiring slots and allocating geometry). Must run on the
	// render goroutine, outside a frame.
	//
	// Returns:
	//   - error: slot or buffer allocation failure
	Resolve() error

	// PrepareFrame marshals the camera uniform and every mounted object's
	// uniform record, then flushes them to the GPU in one batch. Object
	// records are marshaled in parallel on the scene's worker pool. Must be
	// called after Resolve and before the renderer's BeginFrame.
	PrepareFrame()

	// DrawCalls issues one draw per mounted object whose bounding sphere
	// intersects the camera frustum. Must be called within a
	// BeginFrame/EndFrame block on the renderer.
	//
	// Returns:
	//   - error: the first draw failure
	DrawCalls() error

	// Release unmounts everything immediately and frees held GPU buffers.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	cam camera.Camera
	r   renderer.Renderer

	objects map[uint64]SceneObject // live objects: pending mounts plus mounted
	mounted map[uint64]mountEntry
	added   []uint64
	removed []uint64
	nextID  uint64

	slots     *binder.SlotAllocator
	alignment uint64
	capacity  int

	// Pre-allocated slice reused each frame for coalesced uniform writes.
	writePool []binder.BufferWrite

	// computePool manages a bounded set of reusable goroutines for the
	// parallel uniform marshal in PrepareFrame. Workers persist across
	// frames.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
}

var _ Scene = &scene{}

// NewScene creates a scene bound to a camera and renderer. Both are required
// and NewScene panics if either is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		active:         false,
		cam:            cam,
		r:              r,
		objects:        make(map[uint64]SceneObject),
		mounted:        make(map[uint64]mountEntry),
		nextID:         1,
		alignment:      r.Alignment(),
		capacity:       binder.MaxObjects,
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	s.slots = binder.NewSlotAllocator(s.capacity)

	// Initialize the compute pool after options so WithComputeWorkers can
	// override the default. Queue size of 256 accommodates typical object
	// counts per marshal batch with headroom.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *scene) Add(obj SceneObject) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.objects) >= s.capacity {
		return 0, fmt.Errorf("%w (%d objects)", ErrSceneFull, s.capacity)
	}

	id := s.nextID
	s.nextID++
	obj.SetID(id)
	s.objects[id] = obj
	s.added = append(s.added, id)
	return id, nil
}

func (s *scene) Get(id uint64) SceneObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *scene) removeLocked(id uint64) {
	if _, ok := s.objects[id]; !ok {
		return
	}
	delete(s.objects, id)

	// Only objects that actually mounted need an unmount; a pending add is
	// simply dropped by Resolve when it no longer finds the object.
	if _, isMounted := s.mounted[id]; isMounted {
		s.removed = append(s.removed, id)
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.objects {
		s.removeLocked(id)
	}
}

func (s *scene) Update(deltaTime float32) {
	s.mu.RLock()
	objects := make([]SceneObject, 0, len(s.objects))
	for _, obj := range s.objects {
		objects = append(objects, obj)
	}
	s.mu.RUnlock()

	for _, obj := range objects {
		obj.Update(deltaTime)
	}
}

func (s *scene) Resolve() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Unmount first so freed slots and buffers are available to this
	// batch's mounts.
	for _, id := range s.removed {
		entry, ok := s.mounted[id]
		if !ok {
			continue
		}
		entry.obj.Geometry().Free(s.r)
		s.slots.Release(entry.slot)
		delete(s.mounted, id)
		logger.Debug("object unmounted", "id", id, "slot", entry.slot)
	}
	s.removed = s.removed[:0]

	for i, id := range s.added {
		obj, ok := s.objects[id]
		if !ok {
			// Removed before it ever mounted.
			continue
		}

		slot, err := s.slots.Acquire()
		if err != nil {
			// Drop the ids mounted so far; the failed id and the rest of the
			// batch stay queued so a later Resolve retries them without
			// re-mounting anything.
			s.added = s.added[i:]
			return fmt.Errorf("mount object %d: %w", id, err)
		}
		if err = obj.Geometry().Allocate(s.r); err != nil {
			s.slots.Release(slot)
			s.added = s.added[i:]
			return fmt.Errorf("mount object %d: %w", id, err)
		}
		s.mounted[id] = mountEntry{obj: obj, slot: slot}
		logger.Debug("object mounted", "id", id, "slot", slot)
	}
	s.added = s.added[:0]

	return nil
}

func (s *scene) PrepareFrame() {
	s.mu.RLock()
	entries := make([]mountEntry, 0, len(s.mounted))
	for _, entry := range s.mounted {
		entries = append(entries, entry)
	}
	cam := s.cam
	s.mu.RUnlock()

	writes := s.writePool[:0]
	cameraUniform := camera.NewGPUCameraUniform(cam)
	writes = append(writes, binder.BufferWrite{
		Target: binder.TargetCamera,
		Offset: 0,
		Data:   cameraUniform.Marshal(),
	})

	// Marshal object records in parallel; each task writes a distinct index
	// so no coordination beyond the WaitGroup is needed.
	objectWrites := make([]binder.BufferWrite, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		idx, e := i, entry
		s.computePool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()

				uniform := binder.GPUObjectUniform{
					Model: e.obj.ModelMatrix(),
					Color: e.obj.Material().Color(),
				}
				objectWrites[idx] = binder.BufferWrite{
					Target: binder.TargetObjectArray,
					Offset: binder.Offset(e.slot, s.alignment),
					Data:   uniform.Marshal(),
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	writes = append(writes, objectWrites...)
	s.writePool = writes
	s.r.WriteBuffers(writes)
}

func (s *scene) DrawCalls() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frustum := common.ExtractFrustum(s.cam.Projection().Mul(s.cam.View()))

	for id, entry := range s.mounted {
		g := entry.obj.Geometry()
		if !g.Allocated() {
			continue
		}

		center, radius := boundingSphere(entry.obj.ModelMatrix(), g.BoundingRadius())
		if !frustum.ContainsSphere(center, radius) {
			continue
		}

		mat := entry.obj.Material()
		err := s.r.Draw(renderer.DrawCall{
			PipelineKey:  mat.PipelineKey(),
			Slot:         entry.slot,
			TextureID:    mat.TextureID(),
			VertexBuffer: g.Buffer(),
			VertexCount:  g.VertexCount(),
		})
		if err != nil {
			return fmt.Errorf("draw object %d: %w", id, err)
		}
	}
	return nil
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.mounted {
		entry.obj.Geometry().Free(s.r)
		s.slots.Release(entry.slot)
		delete(s.mounted, id)
	}
	s.objects = make(map[uint64]SceneObject)
	s.added = s.added[:0]
	s.removed = s.removed[:0]
}

// boundingSphere maps a model-space bounding radius into world space using
// the object's model matrix: the center is the matrix translation and the
// radius scales by the largest basis column length.
func boundingSphere(model common.Mat4, radius float32) (common.Vec3, float32) {
	center := common.Vec3{model[12], model[13], model[14]}

	scale := common.Vec3{model[0], model[1], model[2]}.Length()
	if s := (common.Vec3{model[4], model[5], model[6]}).Length(); s > scale {
		scale = s
	}
	if s := (common.Vec3{model[8], model[9], model[10]}).Length(); s > scale {
		scale = s
	}
	return center, radius * scale
}

// Object retrieves a live object by id with its concrete type. The second
// return is false when the id is unknown or the object is not a T.
//
// Parameters:
//   - s: the scene to query
//   - id: the object's id
//
// Returns:
//   - T: the typed object (zero value when absent)
//   - bool: whether a live object of type T was found
func Object[T SceneObject](s Scene, id uint64) (T, bool) {
	obj := s.Get(id)
	if obj == nil {
		var zero T
		return zero, false
	}
	typed, ok := obj.(T)
	return typed, ok
}

// WithObject runs fn against a live object of type T. A silent no-op when the
// id is unknown or the object has a different type.
//
// Parameters:
//   - s: the scene to query
//   - id: the object's id
//   - fn: the function to run with the typed object
func WithObject[T SceneObject](s Scene, id uint64, fn func(T)) {
	if typed, ok := Object[T](s, id); ok {
		fn(typed)
	}
}
