// Package config holds the renderer's startup configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is looked up when no configuration file is named explicitly.
const DefaultPath = "pbrviewer.toml"

// FramesInFlight is the only supported number of frame slots.
const FramesInFlight = 2

// Fallbacks names the textures substituted for absent material slots.
type Fallbacks struct {
	Default  string `toml:"default"`
	AO       string `toml:"ao"`
	Normal   string `toml:"normal"`
	Specular string `toml:"specular"`
}

type Config struct {
	Title          string `toml:"title"`
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
	Validation     bool   `toml:"validation"`
	FramesInFlight int    `toml:"frames_in_flight"`
	LogLevel       string `toml:"log_level"`

	ModelPath string `toml:"model"`
	FlipUVs   bool   `toml:"flip_uvs"`
	// PBRTextures selects the five-slot PBR material set and shaders. When
	// false only diffuse and specular maps are loaded and lit with Phong.
	PBRTextures bool      `toml:"pbr_textures"`
	ShaderDir   string    `toml:"shader_dir"`
	SkyboxFaces [6]string `toml:"skybox_faces"`
	Fallbacks   Fallbacks `toml:"fallbacks"`

	MinSampleShading float32    `toml:"min_sample_shading"`
	ClearColor       [4]float32 `toml:"clear_color"`

	FieldOfView      float32 `toml:"fov"`
	MouseSensitivity float32 `toml:"mouse_sensitivity"`
	MoveSpeed        float32 `toml:"move_speed"`
}

func Default() Config {
	return Config{
		Title:          "PBR Renderer",
		Width:          1600,
		Height:         900,
		Validation:     true,
		FramesInFlight: FramesInFlight,
		LogLevel:       "info",

		ModelPath:   "assets/models/backpack/backpack.obj",
		FlipUVs:     true,
		PBRTextures: true,
		ShaderDir:   "assets/shaders/out",
		SkyboxFaces: [6]string{
			"assets/textures/skybox/right.jpg",
			"assets/textures/skybox/left.jpg",
			"assets/textures/skybox/top.jpg",
			"assets/textures/skybox/bottom.jpg",
			"assets/textures/skybox/front.jpg",
			"assets/textures/skybox/back.jpg",
		},
		Fallbacks: Fallbacks{
			Default:  "assets/textures/checkerboard.png",
			AO:       "assets/textures/white.png",
			Normal:   "assets/textures/normal.png",
			Specular: "assets/textures/checkerboard.png",
		},

		MinSampleShading: 0.2,
		ClearColor:       [4]float32{0, 0, 0, 1},

		FieldOfView:      45,
		MouseSensitivity: 0.1,
		MoveSpeed:        0.005,
	}
}

// Load overlays the TOML file at path onto Default. A missing file is only
// tolerated for DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && filepath.Clean(path) == DefaultPath {
		return cfg, cfg.Validate()
	} else if err != nil {
		return cfg, errors.Wrapf(err, "config: read %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: parse %s", path)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("config: window size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.FramesInFlight != FramesInFlight {
		return errors.Newf("config: frames_in_flight must be %d, got %d", FramesInFlight, c.FramesInFlight)
	}
	if c.ModelPath == "" {
		return errors.New("config: model path is empty")
	}
	if c.MinSampleShading < 0 || c.MinSampleShading > 1 {
		return errors.Newf("config: min_sample_shading must be within [0,1], got %f", c.MinSampleShading)
	}
	for i, face := range c.SkyboxFaces {
		if face == "" {
			return errors.Newf("config: skybox face %d is empty", i)
		}
	}
	return nil
}

// ShaderPath resolves a compiled shader name against ShaderDir.
func (c Config) ShaderPath(name string) string {
	return filepath.Join(c.ShaderDir, name)
}
