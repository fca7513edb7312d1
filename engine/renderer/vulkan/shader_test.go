package vulkan

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spirvWords(order binary.ByteOrder, words ...uint32) []byte {
	data := make([]byte, 4*len(words))
	for i, w := range words {
		order.PutUint32(data[i*4:], w)
	}
	return data
}

func TestParseSPIRV(t *testing.T) {
	code, err := ParseSPIRV(spirvWords(binary.LittleEndian, spirvMagic, 0x00010000, 7))
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 0x00010000, 7}, code)

	code, err = ParseSPIRV(spirvWords(binary.BigEndian, spirvMagic, 42))
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 42}, code, "big-endian modules are byte swapped")
}

func TestShaderModuleInfoSizeInBytes(t *testing.T) {
	code := []uint32{spirvMagic, 0x00010000, 7}
	info := shaderModuleInfo(code)
	assert.Equal(t, vk.StructureTypeShaderModuleCreateInfo, info.SType)
	assert.Equal(t, uint64(12), info.CodeSize)
	assert.Equal(t, code, info.PCode)
}

func TestParseSPIRVRejectsGarbage(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     nil,
		"truncated": append(spirvWords(binary.LittleEndian, spirvMagic), 0x01),
		"bad magic": spirvWords(binary.LittleEndian, 0xdeadbeef, 1),
		"glsl":      []byte("#version 450\n\nvoid main() {}\n"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSPIRV(data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidShader))
		})
	}
}

func TestLoadShaderSet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, vertexShaderFile), spirvWords(binary.LittleEndian, spirvMagic, 1), 0o644))

	_, err := LoadShaderSet(dir)
	require.Error(t, err, "fragment stage missing")
	assert.Contains(t, err.Error(), fragmentShaderFile)

	require.NoError(t, os.WriteFile(filepath.Join(dir, fragmentShaderFile), spirvWords(binary.LittleEndian, spirvMagic, 2), 0o644))
	set, err := LoadShaderSet(dir)
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 1}, set.Vertex)
	assert.Equal(t, []uint32{spirvMagic, 2}, set.Fragment)
}

func TestResultError(t *testing.T) {
	assert.NoError(t, ResultError(vk.Success, "vkQueueSubmit"))

	for _, res := range []vk.Result{vk.ErrorOutOfDate, vk.Suboptimal} {
		err := ResultError(res, "vkAcquireNextImageKHR")
		assert.True(t, core.IsStale(err), VulkanResultString(res))
		assert.False(t, errors.Is(err, core.ErrFatalDevice))
	}

	err := ResultError(vk.ErrorDeviceLost, "vkQueueSubmit")
	assert.True(t, errors.Is(err, core.ErrFatalDevice))
	assert.False(t, core.IsStale(err))
	assert.Equal(t, "vkQueueSubmit failed with VK_ERROR_DEVICE_LOST", err.Error())
}

func TestVulkanStrings(t *testing.T) {
	assert.Equal(t, "main\x00", VulkanSafeString("main"))
	assert.Equal(t, "main\x00", VulkanSafeString("main\x00"))
	assert.Equal(t, "\x00", VulkanSafeString(""))

	in := []string{"a", "b\x00"}
	assert.Equal(t, []string{"a\x00", "b\x00"}, VulkanSafeStrings(in))
	assert.Equal(t, "a", in[0], "input is not modified")

	var name [16]byte
	copy(name[:], "VK_KHR_surface")
	assert.Equal(t, "VK_KHR_surface", cString(name[:]))
	assert.Equal(t, "abc", cString([]byte("abc")))
}
