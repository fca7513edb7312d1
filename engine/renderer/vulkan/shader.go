package vulkan

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/core"
)

const (
	spirvMagic = 0x07230203

	vertexShaderFile   = "triangle.vert.spv"
	fragmentShaderFile = "triangle.frag.spv"
)

/**
 * @brief SPIR-V words for the two stages of the triangle pipeline.
 */
type ShaderSet struct {
	Vertex   []uint32
	Fragment []uint32
}

// LoadShaderSet reads and validates the triangle shader pair from dir.
func LoadShaderSet(dir string) (ShaderSet, error) {
	vert, err := LoadShaderCode(filepath.Join(dir, vertexShaderFile))
	if err != nil {
		return ShaderSet{}, err
	}
	frag, err := LoadShaderCode(filepath.Join(dir, fragmentShaderFile))
	if err != nil {
		return ShaderSet{}, err
	}
	return ShaderSet{Vertex: vert, Fragment: frag}, nil
}

func LoadShaderCode(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading shader %s", path)
	}
	code, err := ParseSPIRV(data)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}
	core.LogDebug("Loaded shader %s (%d words).", path, len(code))
	return code, nil
}

// ParseSPIRV checks the length and magic number of a SPIR-V binary and
// repacks it into host-order words.
func ParseSPIRV(data []byte) ([]uint32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.Mark(errors.Newf("length %d is not a positive multiple of 4", len(data)), core.ErrInvalidShader)
	}
	// The magic number tells the module's endianness.
	var order binary.ByteOrder = binary.LittleEndian
	switch {
	case binary.LittleEndian.Uint32(data) == spirvMagic:
	case binary.BigEndian.Uint32(data) == spirvMagic:
		order = binary.BigEndian
	default:
		return nil, errors.Mark(errors.Newf("bad magic number %#08x", binary.LittleEndian.Uint32(data)), core.ErrInvalidShader)
	}
	code := make([]uint32, len(data)/4)
	for i := range code {
		code[i] = order.Uint32(data[i*4:])
	}
	return code, nil
}

// shaderModuleInfo describes code for vkCreateShaderModule. CodeSize is in bytes.
func shaderModuleInfo(code []uint32) vk.ShaderModuleCreateInfo {
	return vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}
}

func newShaderModule(ctx *DeviceContext, code []uint32) (vk.ShaderModule, error) {
	shaderModuleCreateInfo := shaderModuleInfo(code)
	var module vk.ShaderModule
	if err := ResultError(vk.CreateShaderModule(ctx.Device, &shaderModuleCreateInfo, ctx.Allocator, &module), "vkCreateShaderModule"); err != nil {
		return nil, err
	}
	return module, nil
}
