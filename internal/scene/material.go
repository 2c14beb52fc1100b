package scene

import (
	"bufio"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// TextureSlot is a material texture role. Slots are bound to the shader in
// declaration order.
type TextureSlot int

const (
	Diffuse TextureSlot = iota
	Roughness
	Metalness
	AmbientOcclusion
	Normal
	Specular
)

// PBRSlots is the order textures are gathered per material.
var PBRSlots = []TextureSlot{Diffuse, Roughness, Metalness, AmbientOcclusion, Normal}

// ClassicSlots is the diffuse and specular pair used with Phong lighting.
var ClassicSlots = []TextureSlot{Diffuse, Specular}

// TextureSlots picks the slot set for the configured material mode.
func TextureSlots(pbr bool) []TextureSlot {
	if pbr {
		return PBRSlots
	}
	return ClassicSlots
}

func (s TextureSlot) String() string {
	switch s {
	case Diffuse:
		return "diffuse"
	case Roughness:
		return "roughness"
	case Metalness:
		return "metalness"
	case AmbientOcclusion:
		return "ao"
	case Normal:
		return "normal"
	case Specular:
		return "specular"
	}
	return "unknown"
}

// mtl directives naming a texture, per slot
var slotDirectives = map[string]TextureSlot{
	"map_kd":   Diffuse,
	"map_pr":   Roughness,
	"map_pm":   Metalness,
	"map_ao":   AmbientOcclusion,
	"map_ks":   Specular,
	"norm":     Normal,
	"map_bump": Normal,
	"bump":     Normal,
}

// MaterialTextures maps material name to the texture file of each slot it
// declares, as written in the .mtl file.
type MaterialTextures map[string]map[TextureSlot]string

// ParseMaterialTextures reads the texture directives of a .mtl file. Map
// options such as -bm are skipped; the file name is the last field.
func ParseMaterialTextures(r io.Reader) (MaterialTextures, error) {
	textures := MaterialTextures{}
	var current map[TextureSlot]string

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		directive := strings.ToLower(fields[0])
		if directive == "newmtl" {
			if len(fields) < 2 {
				return nil, errors.Newf("mtl line %d: newmtl without a name", line)
			}
			current = map[TextureSlot]string{}
			textures[fields[1]] = current
			continue
		}

		slot, isTexture := slotDirectives[directive]
		if !isTexture || current == nil || len(fields) < 2 {
			continue
		}
		if _, seen := current[slot]; !seen {
			current[slot] = fields[len(fields)-1]
		}
	}

	return textures, errors.Wrap(scanner.Err(), "read mtl")
}

// MaterialLibrary finds the mtllib statement of an .obj file.
func MaterialLibrary(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "mtllib" {
			return strings.Join(fields[1:], " "), nil
		}
	}
	return "", errors.Wrap(scanner.Err(), "read obj")
}
