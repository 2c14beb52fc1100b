package vkctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
)

func TestInstanceExtensions(t *testing.T) {
	available := map[string]struct{}{
		"VK_KHR_surface":      {},
		"VK_KHR_xlib_surface": {},
	}

	names, err := InstanceExtensions([]string{"VK_KHR_surface", "VK_KHR_xlib_surface"}, available, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"VK_KHR_surface", "VK_KHR_xlib_surface"}, names)

	names, err = InstanceExtensions([]string{"VK_KHR_surface"}, available, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"VK_KHR_surface", ext_debug_utils.ExtensionName}, names)
}

func TestInstanceExtensionsMissing(t *testing.T) {
	_, err := InstanceExtensions([]string{"VK_KHR_wayland_surface"}, map[string]int{"VK_KHR_surface": 1}, false)
	assert.ErrorContains(t, err, "VK_KHR_wayland_surface")
}

func TestPortabilityEnumeration(t *testing.T) {
	names, flags := PortabilityEnumeration(map[string]int{"VK_KHR_surface": 1})
	assert.Empty(t, names)
	assert.Zero(t, flags)

	names, flags = PortabilityEnumeration(map[string]int{
		"VK_KHR_surface":                1,
		PortabilityEnumerationExtension: 1,
	})
	assert.Equal(t, []string{"VK_KHR_portability_enumeration"}, names)
	assert.Equal(t, InstanceCreateEnumeratePortability, flags)
}
