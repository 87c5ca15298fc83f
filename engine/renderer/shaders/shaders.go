// Package shaders holds the embedded WGSL sources for the built-in
// pipeline families.
package shaders

import (
	_ "embed"
)

// Primitive is the shared shader for the Basic and Textured material
// variants. Sampling is toggled per draw through the texture-enabled
// uniform so both variants share one pipeline.
//
//go:embed primitive.wgsl
var Primitive string

// Line is the shader for line-list debug geometry.
//
//go:embed line.wgsl
var Line string

// Quad is the full-screen composite shader that blits the offscreen color
// target onto the presentable surface.
//
//go:embed quad.wgsl
var Quad string
