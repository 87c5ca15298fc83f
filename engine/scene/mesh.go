package scene

import (
	"sync"

	"github.com/ryanw/byd-go/common"
	"github.com/ryanw/byd-go/engine/geometry"
	"github.com/ryanw/byd-go/engine/material"
)

// SceneObject is anything the scene can register, mount, and draw. The scene
// assigns the id on Add; ids are never reused.
type SceneObject interface {
	// ID returns the object's scene-assigned id, or 0 before Add.
	ID() uint64

	// SetID stores the scene-assigned id. Called by the scene during Add.
	//
	// Parameters:
	//   - id: the assigned object id
	SetID(id uint64)

	// Geometry returns the object's geometry.
	Geometry() geometry.Geometry

	// Material returns the object's material.
	Material() material.Material

	// SetMaterial replaces the object's material.
	//
	// Parameters:
	//   - m: the new material
	SetMaterial(m material.Material)

	// ModelMatrix returns the object's local-to-world transform.
	//
	// Returns:
	//   - common.Mat4: the model matrix
	ModelMatrix() common.Mat4

	// Update advances the object's per-tick behavior.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last tick in seconds
	Update(deltaTime float32)
}

// mesh is the implementation of the Mesh interface.
type mesh struct {
	mu *sync.Mutex

	id       uint64
	geometry geometry.Geometry
	material material.Material

	position common.Vec3
	rotation common.Vec3 // euler angles in radians, applied Y then X then Z
	scale    common.Vec3

	update func(m Mesh, deltaTime float32)
}

// Mesh is a drawable object with a transform built from position, euler
// rotation, and scale. Safe for concurrent use; the engine's tick goroutine
// mutates transforms while the render goroutine reads them.
type Mesh interface {
	SceneObject

	// Position returns the mesh's world position.
	Position() common.Vec3

	// SetPosition sets the mesh's world position.
	//
	// Parameters:
	//   - x, y, z: the new position
	SetPosition(x, y, z float32)

	// Rotation returns the mesh's euler rotation in radians.
	Rotation() common.Vec3

	// SetRotation sets the mesh's euler rotation in radians.
	//
	// Parameters:
	//   - x, y, z: rotation around each axis
	SetRotation(x, y, z float32)

	// Rotate adds to the mesh's euler rotation.
	//
	// Parameters:
	//   - x, y, z: rotation deltas in radians
	Rotate(x, y, z float32)

	// Scale returns the mesh's scale factors.
	Scale() common.Vec3

	// SetScale sets the mesh's scale factors.
	//
	// Parameters:
	//   - x, y, z: the new scale
	SetScale(x, y, z float32)

	// Translate moves the mesh by a world-space delta.
	//
	// Parameters:
	//   - x, y, z: the translation delta
	Translate(x, y, z float32)
}

var _ Mesh = &mesh{}

// NewMesh creates a drawable mesh from geometry and a material.
//
// Parameters:
//   - g: the mesh's geometry
//   - m: the mesh's material
//   - opts: a variadic list of MeshBuilderOption functions
//
// Returns:
//   - Mesh: the new mesh
func NewMesh(g geometry.Geometry, m material.Material, opts ...MeshBuilderOption) Mesh {
	if m == (material.Material{}) {
		m = material.Default()
	}
	msh := &mesh{
		mu:       &sync.Mutex{},
		geometry: g,
		material: m,
		scale:    common.Vec3{1, 1, 1},
	}
	for _, opt := range opts {
		opt(msh)
	}
	return msh
}

func (m *mesh) ID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *mesh) SetID(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
}

func (m *mesh) Geometry() geometry.Geometry {
	return m.geometry
}

func (m *mesh) Material() material.Material {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.material
}

func (m *mesh) SetMaterial(mat material.Material) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.material = mat
}

func (m *mesh) ModelMatrix() common.Mat4 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return common.Translation(m.position[0], m.position[1], m.position[2]).
		Mul(common.RotationY(m.rotation[1])).
		Mul(common.RotationX(m.rotation[0])).
		Mul(common.RotationZ(m.rotation[2])).
		Mul(common.Scaling(m.scale[0], m.scale[1], m.scale[2]))
}

func (m *mesh) Update(deltaTime float32) {
	m.mu.Lock()
	update := m.update
	m.mu.Unlock()

	if update != nil {
		update(m, deltaTime)
	}
}

func (m *mesh) Position() common.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *mesh) SetPosition(x, y, z float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = common.Vec3{x, y, z}
}

func (m *mesh) Rotation() common.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotation
}

func (m *mesh) SetRotation(x, y, z float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation = common.Vec3{x, y, z}
}

func (m *mesh) Rotate(x, y, z float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation[0] += x
	m.rotation[1] += y
	m.rotation[2] += z
}

func (m *mesh) Scale() common.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scale
}

func (m *mesh) SetScale(x, y, z float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scale = common.Vec3{x, y, z}
}

func (m *mesh) Translate(x, y, z float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position[0] += x
	m.position[1] += y
	m.position[2] += z
}

// MeshBuilderOption is a functional option applied to a mesh during construction via NewMesh.
type MeshBuilderOption func(*mesh)

// WithPosition sets the mesh's initial world position.
//
// Parameters:
//   - x, y, z: the position
//
// Returns:
//   - MeshBuilderOption: a function that applies the position option to a mesh
func WithPosition(x, y, z float32) MeshBuilderOption {
	return func(m *mesh) {
		m.position = common.Vec3{x, y, z}
	}
}

// WithRotation sets the mesh's initial euler rotation in radians.
//
// Parameters:
//   - x, y, z: rotation around each axis
//
// Returns:
//   - MeshBuilderOption: a function that applies the rotation option to a mesh
func WithRotation(x, y, z float32) MeshBuilderOption {
	return func(m *mesh) {
		m.rotation = common.Vec3{x, y, z}
	}
}

// WithScale sets the mesh's initial scale factors.
//
// Parameters:
//   - x, y, z: the scale
//
// Returns:
//   - MeshBuilderOption: a function that applies the scale option to a mesh
func WithScale(x, y, z float32) MeshBuilderOption {
	return func(m *mesh) {
		m.scale = common.Vec3{x, y, z}
	}
}

// WithUpdate attaches a per-tick behavior to the mesh.
//
// Parameters:
//   - fn: called every tick with the mesh and the elapsed seconds
//
// Returns:
//   - MeshBuilderOption: a function that applies the update option to a mesh
func WithUpdate(fn func(m Mesh, deltaTime float32)) MeshBuilderOption {
	return func(m *mesh) {
		m.update = fn
	}
}
