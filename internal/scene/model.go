package scene

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/pbr-renderer/internal/config"
	"golang.org/x/exp/slog"
)

var ErrModelLoad = errors.New("failed to load model")

// ModelData is a triangulated, deduplicated mesh with tangents, plus the
// texture files its materials use in slot order.
type ModelData struct {
	Vertices     []Vertex
	Indices      []uint32
	TexturePaths []string
}

// LoadModel decodes a Wavefront .obj file and the material library next to
// it. Faces are fan-triangulated. Each material contributes one texture per
// slot; slots a material leaves empty get the matching fallback.
func LoadModel(path string, flipUVs bool, slots []TextureSlot, fallbacks config.Fallbacks, log *slog.Logger) (*ModelData, error) {
	log.Info("loading model", slog.String("path", path))

	objBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithHint(errors.Wrapf(ErrModelLoad, "%s: %v", path, err), "check the model path in the configuration")
	}

	dir := filepath.Dir(path)
	var mtlBytes []byte
	mtlName, err := MaterialLibrary(bytes.NewReader(objBytes))
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "%s: %v", path, err)
	}
	if mtlName != "" {
		mtlBytes, err = os.ReadFile(filepath.Join(dir, mtlName))
		if err != nil {
			log.Warn("material library unavailable", slog.String("path", mtlName), slog.Any("error", err))
			mtlBytes = nil
		}
	}

	decoder, err := obj.DecodeReader(bytes.NewReader(objBytes), bytes.NewReader(mtlBytes))
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "%s: %v", path, err)
	}
	for _, warning := range decoder.Warnings {
		log.Debug("obj decoder", slog.String("warning", warning))
	}

	stream := triangulate(decoder, flipUVs)
	if len(stream) == 0 {
		return nil, errors.Wrapf(ErrModelLoad, "%s: no faces", path)
	}

	materialTextures, err := ParseMaterialTextures(bytes.NewReader(mtlBytes))
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "%s: %v", path, err)
	}

	model := &ModelData{}
	model.Vertices, model.Indices = Deduplicate(stream)
	GenerateTangents(model.Vertices, model.Indices)
	model.TexturePaths = ResolveTextures(usedMaterials(decoder), materialTextures, dir, slots, fallbacks, log)

	log.Info("model loaded",
		slog.Int("vertices", len(model.Vertices)),
		slog.Int("indices", len(model.Indices)),
		slog.Int("textures", len(model.TexturePaths)),
	)
	return model, nil
}

func triangulate(decoder *obj.Decoder, flipUVs bool) []Vertex {
	var stream []Vertex
	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				stream = append(stream,
					faceVertex(decoder, face, 0, flipUVs),
					faceVertex(decoder, face, i-1, flipUVs),
					faceVertex(decoder, face, i, flipUVs),
				)
			}
		}
	}
	return stream
}

func faceVertex(decoder *obj.Decoder, face obj.Face, corner int, flipUVs bool) Vertex {
	var vert Vertex

	vertInd := face.Vertices[corner]
	if vertInd >= 0 && vertInd*3+2 < len(decoder.Vertices) {
		vert.Pos = mgl32.Vec3{
			decoder.Vertices[vertInd*3],
			decoder.Vertices[vertInd*3+1],
			decoder.Vertices[vertInd*3+2],
		}
	}

	if corner < len(face.Normals) {
		normInd := face.Normals[corner]
		if normInd >= 0 && normInd*3+2 < len(decoder.Normals) {
			vert.Normal = mgl32.Vec3{
				decoder.Normals[normInd*3],
				decoder.Normals[normInd*3+1],
				decoder.Normals[normInd*3+2],
			}
		}
	}

	if corner < len(face.Uvs) {
		uvInd := face.Uvs[corner]
		if uvInd >= 0 && uvInd*2+1 < len(decoder.Uvs) {
			v := decoder.Uvs[uvInd*2+1]
			if flipUVs {
				v = 1.0 - v
			}
			vert.TexCoord = mgl32.Vec2{decoder.Uvs[uvInd*2], v}
		}
	}

	return vert
}

// usedMaterials lists material names in order of first use. A model with
// no materials is treated as one unnamed material.
func usedMaterials(decoder *obj.Decoder) []string {
	seen := map[string]bool{}
	var names []string
	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			if !seen[face.Material] {
				seen[face.Material] = true
				names = append(names, face.Material)
			}
		}
	}
	if len(names) == 0 {
		names = append(names, "")
	}
	return names
}

// FallbackFor is the texture substituted for an empty slot.
func FallbackFor(slot TextureSlot, fallbacks config.Fallbacks) string {
	switch slot {
	case AmbientOcclusion:
		return fallbacks.AO
	case Normal:
		return fallbacks.Normal
	case Specular:
		return fallbacks.Specular
	}
	return fallbacks.Default
}

// ResolveTextures walks materials in order and collects one path per slot. Declared textures are resolved against dir and listed once even if
// several materials share them; fallbacks are listed every time they are
// used so each material keeps all of its slots.
func ResolveTextures(materials []string, textures MaterialTextures, dir string, slots []TextureSlot, fallbacks config.Fallbacks, log *slog.Logger) []string {
	var paths []string
	loaded := map[string]bool{}

	for _, material := range materials {
		declared := textures[material]
		for _, slot := range slots {
			file, ok := declared[slot]
			if !ok {
				fallback := FallbackFor(slot, fallbacks)
				log.Warn("fallback texture", slog.String("material", material), slog.String("slot", slot.String()), slog.String("path", fallback))
				paths = append(paths, fallback)
				continue
			}

			texturePath := filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(file, "\\", "/")))
			if loaded[texturePath] {
				continue
			}
			loaded[texturePath] = true
			log.Info("texture", slog.String("slot", slot.String()), slog.String("path", texturePath))
			paths = append(paths, texturePath)
		}
	}

	return paths
}
