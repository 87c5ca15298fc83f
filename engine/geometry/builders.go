package geometry

import (
	"github.com/ryanw/byd-go/common"
)

type cubeFace struct {
	normal  common.Vec3
	corners [6]common.Vec3
}

// cubeFaces lists the six faces of a unit cube with half-extent 1, two
// triangles per face, in far, near, left, right, top, bottom order.
var cubeFaces = [6]cubeFace{
	{common.Vec3{0, 0, -1}, [6]common.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1},
		{-1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	}},
	{common.Vec3{0, 0, 1}, [6]common.Vec3{
		{-1, -1, 1}, {1, 1, 1}, {1, -1, 1},
		{-1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
	}},
	{common.Vec3{-1, 0, 0}, [6]common.Vec3{
		{-1, -1, -1}, {-1, 1, -1}, {-1, 1, 1},
		{-1, -1, -1}, {-1, 1, 1}, {-1, -1, 1},
	}},
	{common.Vec3{1, 0, 0}, [6]common.Vec3{
		{1, -1, -1}, {1, 1, 1}, {1, 1, -1},
		{1, -1, -1}, {1, -1, 1}, {1, 1, 1},
	}},
	{common.Vec3{0, 1, 0}, [6]common.Vec3{
		{-1, 1, -1}, {1, 1, -1}, {1, 1, 1},
		{-1, 1, -1}, {1, 1, 1}, {-1, 1, 1},
	}},
	{common.Vec3{0, -1, 0}, [6]common.Vec3{
		{-1, -1, -1}, {-1, -1, 1}, {1, -1, 1},
		{-1, -1, -1}, {1, -1, 1}, {1, -1, -1},
	}},
}

// Cube returns a 36-vertex unit cube with per-face normals and box-mapped
// texture coordinates. Color comes from the object's material at draw time.
func Cube() []PrimitiveVertex {
	verts := make([]PrimitiveVertex, 0, 36)
	for _, face := range cubeFaces {
		for _, p := range face.corners {
			verts = append(verts, PrimitiveVertex{
				Position: p,
				Normal:   face.normal,
				UV:       faceUV(face.normal, p),
			})
		}
	}
	return verts
}

// faceUV maps a cube corner to [0, 1] texture coordinates by projecting it
// onto the face plane.
func faceUV(normal, p common.Vec3) [2]float32 {
	var u, v float32
	switch {
	case normal[0] != 0:
		u, v = p[2], p[1]
	case normal[1] != 0:
		u, v = p[0], p[2]
	default:
		u, v = p[0], p[1]
	}
	return [2]float32{(u + 1) / 2, (v + 1) / 2}
}

// FullScreenQuad returns the six clip-space vertices covering the entire
// viewport, with texture coordinates mapping the source top-left to v = 0.
func FullScreenQuad() []QuadVertex {
	return []QuadVertex{
		{Position: [2]float32{-1, -1}, UV: [2]float32{0, 1}},
		{Position: [2]float32{1, -1}, UV: [2]float32{1, 1}},
		{Position: [2]float32{1, 1}, UV: [2]float32{1, 0}},
		{Position: [2]float32{-1, -1}, UV: [2]float32{0, 1}},
		{Position: [2]float32{1, 1}, UV: [2]float32{1, 0}},
		{Position: [2]float32{-1, 1}, UV: [2]float32{0, 0}},
	}
}

// Axes returns line-list vertices for the three world axes, each of the
// given length: X red, Y green, Z blue.
func Axes(length float32) []SimpleVertex {
	red := common.NewColor(1, 0, 0, 1)
	green := common.NewColor(0, 1, 0, 1)
	blue := common.NewColor(0, 0, 1, 1)
	return []SimpleVertex{
		{Position: common.Vec3{}, Color: red},
		{Position: common.Vec3{length, 0, 0}, Color: red},
		{Position: common.Vec3{}, Color: green},
		{Position: common.Vec3{0, length, 0}, Color: green},
		{Position: common.Vec3{}, Color: blue},
		{Position: common.Vec3{0, 0, length}, Color: blue},
	}
}
