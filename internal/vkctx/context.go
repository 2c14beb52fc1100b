// Package vkctx brings up the Vulkan instance, the validation layer debug
// messenger and the presentation surface.
package vkctx

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_surface"
	"golang.org/x/exp/slog"
)

const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// VK_KHR_portability_enumeration has no binding in the pinned extensions
// module, so its name and create flag are taken from the Vulkan registry.
const (
	PortabilityEnumerationExtension                                = "VK_KHR_portability_enumeration"
	InstanceCreateEnumeratePortability core1_0.InstanceCreateFlags = 0x00000001
)

var ErrValidationLayerMissing = errors.New("validation layer not available")

// Window is the part of the windowing collaborator needed to create an
// instance and a surface for it.
type Window interface {
	RequiredExtensions() []string
	CreateSurface(instance core1_0.Instance) (khr_surface.Surface, error)
}

type Options struct {
	ApplicationName string
	Validation      bool
}

type Context struct {
	Loader         core.Loader
	Instance       core1_0.Instance
	DebugMessenger ext_debug_utils.Messenger
	Surface        khr_surface.Surface

	log *slog.Logger
}

// New creates the instance, debug messenger and surface. On failure every
// object created so far is destroyed.
func New(loader core.Loader, window Window, opts Options, log *slog.Logger) (ctx *Context, err error) {
	ctx = &Context{Loader: loader, log: log}
	defer func() {
		if err != nil {
			ctx.Destroy()
			ctx = nil
		}
	}()

	err = ctx.createInstance(window, opts)
	if err != nil {
		return ctx, err
	}

	if opts.Validation {
		debugLoader := ext_debug_utils.CreateExtensionFromInstance(ctx.Instance)
		ctx.DebugMessenger, _, err = debugLoader.CreateDebugUtilsMessenger(ctx.Instance, nil, ctx.debugMessengerOptions())
		if err != nil {
			return ctx, errors.Wrap(err, "create debug messenger")
		}
	}

	ctx.Surface, err = window.CreateSurface(ctx.Instance)
	if err != nil {
		return ctx, errors.Wrap(err, "create window surface")
	}

	return ctx, nil
}

func (c *Context) createInstance(window Window, opts Options) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "pbr-renderer",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := c.Loader.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	requested, err := InstanceExtensions(window.RequiredExtensions(), extensions, opts.Validation)
	if err != nil {
		return err
	}
	instanceOptions.EnabledExtensionNames = requested

	portability, flags := PortabilityEnumeration(extensions)
	instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, portability...)
	instanceOptions.Flags |= flags

	if opts.Validation {
		layers, _, err := c.Loader.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate instance layers")
		}

		_, hasValidation := layers[ValidationLayer]
		if !hasValidation {
			return errors.WithHint(errors.Wrapf(ErrValidationLayerMissing, "layer %s", ValidationLayer),
				"install the LunarG Vulkan SDK or disable validation")
		}
		instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, ValidationLayer)

		// cover instance creation and destruction as well
		instanceOptions.Next = c.debugMessengerOptions()
	}

	c.Instance, _, err = c.Loader.CreateInstance(nil, instanceOptions)
	return errors.Wrap(err, "create instance")
}

// InstanceExtensions checks that every window extension is available and
// appends the debug utils extension when validation is requested.
func InstanceExtensions[T any](windowExtensions []string, available map[string]T, validation bool) ([]string, error) {
	var names []string
	for _, ext := range windowExtensions {
		_, hasExt := available[ext]
		if !hasExt {
			return nil, errors.Newf("cannot initialize window: missing instance extension %s", ext)
		}
		names = append(names, ext)
	}

	if validation {
		names = append(names, ext_debug_utils.ExtensionName)
	}

	return names, nil
}

// PortabilityEnumeration enables portability drivers such as MoltenVK when
// the loader offers them.
func PortabilityEnumeration[T any](available map[string]T) ([]string, core1_0.InstanceCreateFlags) {
	_, enumerationSupported := available[PortabilityEnumerationExtension]
	if !enumerationSupported {
		return nil, 0
	}
	return []string{PortabilityEnumerationExtension}, InstanceCreateEnumeratePortability
}

func (c *Context) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    c.logDebug,
	}
}

func (c *Context) logDebug(msgType ext_debug_utils.MessageTypes, severity ext_debug_utils.MessageSeverities, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	level := slog.LevelWarn
	if (severity & ext_debug_utils.SeverityError) != 0 {
		level = slog.LevelError
	}

	c.log.Log(context.Background(), level, data.Message, slog.String("type", msgType.String()))
	return false
}

// Destroy releases surface, messenger and instance, in that order.
func (c *Context) Destroy() {
	if c.Surface != nil {
		c.Surface.Destroy(nil)
		c.Surface = nil
	}

	if c.DebugMessenger != nil {
		c.DebugMessenger.Destroy(nil)
		c.DebugMessenger = nil
	}

	if c.Instance != nil {
		c.Instance.Destroy(nil)
		c.Instance = nil
	}
}
