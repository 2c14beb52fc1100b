package frame

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/pbr-renderer/internal/logging"
	"github.com/vkngwrapper/pbr-renderer/internal/swapchain"
)

// fakeGPU models fences: a submitted frame stays in flight until a wait on
// its slot's fence observes it complete.
type fakeGPU struct {
	t *testing.T

	frame     int
	submitted [FramesInFlight]int
	observed  [FramesInFlight]int
	inFlight  [FramesInFlight]bool
	maxFlight int

	acquireStatus []Status
	presentStatus []Status

	events []string
}

func newFakeGPU(t *testing.T) *fakeGPU {
	g := &fakeGPU{t: t}
	for i := range g.submitted {
		g.submitted[i] = -1
		g.observed[i] = -1
	}
	return g
}

func (g *fakeGPU) log(format string, args ...any) {
	g.events = append(g.events, fmt.Sprintf(format, args...))
}

func (g *fakeGPU) WaitForFence(slot *Slot) error {
	g.log("wait%d", slot.Index)
	g.inFlight[slot.Index] = false
	g.observed[slot.Index] = g.submitted[slot.Index]
	return nil
}

func (g *fakeGPU) AcquireNextImage(slot *Slot) (int, Status, error) {
	g.log("acquire%d", slot.Index)
	status := Success
	if len(g.acquireStatus) > 0 {
		status, g.acquireStatus = g.acquireStatus[0], g.acquireStatus[1:]
	}
	return g.frame % 3, status, nil
}

func (g *fakeGPU) ResetFence(slot *Slot) error {
	g.log("reset%d", slot.Index)
	require.False(g.t, g.inFlight[slot.Index], "fence of slot %d reset while its frame is in flight", slot.Index)
	return nil
}

func (g *fakeGPU) Record(slot *Slot, imageIndex int) error {
	g.log("record%d", slot.Index)
	require.False(g.t, g.inFlight[slot.Index], "slot %d recorded while in flight", slot.Index)
	require.Equal(g.t, g.submitted[slot.Index], g.observed[slot.Index],
		"slot %d recorded before its last submission was observed complete", slot.Index)
	return nil
}

func (g *fakeGPU) Submit(slot *Slot) error {
	g.log("submit%d", slot.Index)
	g.inFlight[slot.Index] = true
	g.submitted[slot.Index] = g.frame

	count := 0
	for _, busy := range g.inFlight {
		if busy {
			count++
		}
	}
	if count > g.maxFlight {
		g.maxFlight = count
	}
	return nil
}

func (g *fakeGPU) Present(slot *Slot, imageIndex int) (Status, error) {
	g.log("present%d", slot.Index)
	g.frame++
	status := Success
	if len(g.presentStatus) > 0 {
		status, g.presentStatus = g.presentStatus[0], g.presentStatus[1:]
	}
	return status, nil
}

type fakeSwapchain struct {
	state      swapchain.State
	recreates  int
	stayClosed bool
	gpu        *fakeGPU
}

func (s *fakeSwapchain) State() swapchain.State { return s.state }
func (s *fakeSwapchain) Invalidate()            { s.state = swapchain.Invalid }

func (s *fakeSwapchain) Recreate() error {
	s.recreates++
	if s.gpu != nil {
		s.gpu.log("recreate")
	}
	if !s.stayClosed {
		s.state = swapchain.Active
	}
	return nil
}

func testSlots() [FramesInFlight]*Slot {
	var slots [FramesInFlight]*Slot
	for i := range slots {
		slots[i] = &Slot{Index: i}
	}
	return slots
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeGPU, *fakeSwapchain) {
	gpu := newFakeGPU(t)
	sc := &fakeSwapchain{state: swapchain.Active, gpu: gpu}
	return NewScheduler(gpu, sc, gpu, testSlots(), logging.Discard()), gpu, sc
}

func TestSlotExclusivity(t *testing.T) {
	scheduler, gpu, _ := newTestScheduler(t)

	for k := 0; k < 20; k++ {
		require.Equal(t, k%FramesInFlight, scheduler.Current())
		require.NoError(t, scheduler.DrawFrame(false))
	}

	assert.Equal(t, uint64(20), scheduler.Frames())
	assert.LessOrEqual(t, gpu.maxFlight, FramesInFlight)
	assert.Equal(t, FramesInFlight, gpu.maxFlight)
}

func TestDrawFrameOrder(t *testing.T) {
	scheduler, gpu, _ := newTestScheduler(t)

	require.NoError(t, scheduler.DrawFrame(false))
	require.NoError(t, scheduler.DrawFrame(false))

	assert.Equal(t, []string{
		"wait0", "acquire0", "reset0", "record0", "submit0", "present0",
		"wait1", "acquire1", "reset1", "record1", "submit1", "present1",
	}, gpu.events)
}

func TestAcquireOutOfDateIsFatal(t *testing.T) {
	scheduler, gpu, _ := newTestScheduler(t)
	gpu.acquireStatus = []Status{OutOfDate}

	err := scheduler.DrawFrame(false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAcquireOutOfDate))

	// the fence must stay signaled so the next wait cannot block forever
	assert.Equal(t, []string{"wait0", "acquire0"}, gpu.events)
	assert.Equal(t, 0, scheduler.Current())
}

func TestAcquireSuboptimalFinishesFrameThenRecreates(t *testing.T) {
	scheduler, gpu, sc := newTestScheduler(t)
	gpu.acquireStatus = []Status{Suboptimal}

	require.NoError(t, scheduler.DrawFrame(false))
	assert.Equal(t, swapchain.Invalid, sc.State())
	assert.Contains(t, gpu.events, "present0")
	assert.Zero(t, sc.recreates)

	require.NoError(t, scheduler.DrawFrame(false))
	assert.Equal(t, 1, sc.recreates)
	assert.Equal(t, swapchain.Active, sc.State())
}

func TestPresentResultInvalidates(t *testing.T) {
	for _, status := range []Status{Suboptimal, OutOfDate} {
		t.Run(status.String(), func(t *testing.T) {
			scheduler, gpu, sc := newTestScheduler(t)
			gpu.presentStatus = []Status{status}

			require.NoError(t, scheduler.DrawFrame(false))
			assert.Equal(t, swapchain.Invalid, sc.State())
			assert.Equal(t, 1, scheduler.Current())

			require.NoError(t, scheduler.DrawFrame(false))
			assert.Equal(t, 1, sc.recreates)
		})
	}
}

func TestResizeRecreatesBeforeWaiting(t *testing.T) {
	scheduler, gpu, sc := newTestScheduler(t)

	require.NoError(t, scheduler.DrawFrame(true))
	assert.Equal(t, 1, sc.recreates)
	assert.Equal(t, []string{"recreate", "wait0"}, gpu.events[:2])
}

func TestNoFrameWhileSwapchainInvalid(t *testing.T) {
	scheduler, gpu, sc := newTestScheduler(t)
	sc.state = swapchain.Invalid
	sc.stayClosed = true

	require.NoError(t, scheduler.DrawFrame(false))
	assert.Equal(t, []string{"recreate"}, gpu.events)
	assert.Equal(t, 0, scheduler.Current())
	assert.Zero(t, scheduler.Frames())
}

type failingRecorder struct{}

func (failingRecorder) Record(*Slot, int) error {
	return errors.New("record failed")
}

func TestRecordErrorStopsFrame(t *testing.T) {
	gpu := newFakeGPU(t)
	scheduler := NewScheduler(gpu, &fakeSwapchain{state: swapchain.Active}, failingRecorder{}, testSlots(), logging.Discard())

	require.Error(t, scheduler.DrawFrame(false))
	assert.Equal(t, []string{"wait0", "acquire0", "reset0"}, gpu.events)
	assert.Equal(t, 0, scheduler.Current())
}
