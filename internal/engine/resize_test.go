package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/pbr-renderer/internal/frame"
	"github.com/vkngwrapper/pbr-renderer/internal/logging"
	"github.com/vkngwrapper/pbr-renderer/internal/swapchain"
)

// eventfulSwapchain reports a resize from inside Recreate, the way SDL
// delivers queued window events while a rebuild waits out a minimize.
type eventfulSwapchain struct {
	engine    *Engine
	state     swapchain.State
	recreates int
	closes    bool
}

func (s *eventfulSwapchain) State() swapchain.State { return s.state }
func (s *eventfulSwapchain) Invalidate()            { s.state = swapchain.Invalid }

func (s *eventfulSwapchain) Recreate() error {
	s.recreates++
	s.engine.OnResize(1024, 768)
	if !s.closes {
		s.state = swapchain.Active
	}
	return nil
}

type idleDriver struct{}

func (idleDriver) WaitForFence(*frame.Slot) error { return nil }
func (idleDriver) AcquireNextImage(*frame.Slot) (int, frame.Status, error) {
	return 0, frame.Success, nil
}
func (idleDriver) ResetFence(*frame.Slot) error                   { return nil }
func (idleDriver) Submit(*frame.Slot) error                       { return nil }
func (idleDriver) Present(*frame.Slot, int) (frame.Status, error) { return frame.Success, nil }

type idleRecorder struct{}

func (idleRecorder) Record(*frame.Slot, int) error { return nil }

func newResizeScheduler(e *Engine, sc *eventfulSwapchain) *frame.Scheduler {
	var slots [frame.FramesInFlight]*frame.Slot
	for i := range slots {
		slots[i] = &frame.Slot{Index: i}
	}
	return frame.NewScheduler(idleDriver{}, resizeSwapchain{Swapchain: sc, resized: &e.resized}, idleRecorder{}, slots, logging.Discard())
}

func TestResizeDuringRecreateRebuildsOnce(t *testing.T) {
	e := newInputEngine()
	sc := &eventfulSwapchain{engine: e, state: swapchain.Active}
	scheduler := newResizeScheduler(e, sc)

	e.OnResize(800, 600)
	for i := 0; i < 3; i++ {
		resized := e.resized
		e.resized = false
		require.NoError(t, scheduler.DrawFrame(resized))
	}

	assert.Equal(t, 1, sc.recreates)
	assert.False(t, e.resized)
	assert.Equal(t, uint64(3), scheduler.Frames())
}

func TestResizeKeptWhenRecreateDoesNotFinish(t *testing.T) {
	e := newInputEngine()
	sc := &eventfulSwapchain{engine: e, state: swapchain.Invalid, closes: true}
	scheduler := newResizeScheduler(e, sc)

	require.NoError(t, scheduler.DrawFrame(false))

	assert.Equal(t, 1, sc.recreates)
	assert.Equal(t, swapchain.Invalid, sc.State())
	assert.True(t, e.resized)
	assert.Zero(t, scheduler.Frames())
}
