// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ModelVertexShader reads the seven mesh vertex attributes and passes a
// tangent frame to the fragment stage.
//
//go:embed model.vert
var ModelVertexShader string

// ModelFragmentShader samples texture_diffuse1, texture_specular1 and
// texture_normal1 with simple Blinn-Phong lighting.
//
//go:embed model.frag
var ModelFragmentShader string
