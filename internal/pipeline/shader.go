package pipeline

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

var ErrBadBytecode = errors.New("SPIR-V bytecode length is not a multiple of 4")

// Bytecode reinterprets little-endian SPIR-V bytes as 32-bit words.
func Bytecode(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, errors.Wrapf(ErrBadBytecode, "%d bytes", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode, nil
}

// LoadShader reads a compiled shader from disk and creates a module for it.
// The caller destroys the module once the pipelines using it are built.
func LoadShader(device core1_0.Device, path string) (core1_0.ShaderModule, error) {
	shaderBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithHint(errors.Wrapf(err, "read shader %s", path),
			"compile the GLSL sources with glslc into the configured shader_dir")
	}

	code, err := Bytecode(shaderBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}

	module, _, err := device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create shader module %s", path)
	}
	return module, nil
}
