// Package frame drives the per-frame protocol: wait on the slot's fence,
// acquire an image, reset the fence, record, submit, present, advance.
package frame

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/pbr-renderer/internal/swapchain"
	"golang.org/x/exp/slog"
)

// ErrAcquireOutOfDate is returned when the swapchain is out of date at
// acquire time. The swapchain is recreated at the top of every frame that
// needs it, so seeing this means frame ordering was violated.
var ErrAcquireOutOfDate = errors.New("swapchain out of date at acquire")

// Status is the presentation outcome reported by acquire and present.
type Status int

const (
	Success Status = iota
	Suboptimal
	OutOfDate
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Suboptimal:
		return "suboptimal"
	case OutOfDate:
		return "out of date"
	}
	return "unknown"
}

// Driver issues the synchronization and queue operations of one frame.
type Driver interface {
	WaitForFence(slot *Slot) error
	AcquireNextImage(slot *Slot) (int, Status, error)
	ResetFence(slot *Slot) error
	Submit(slot *Slot) error
	Present(slot *Slot, imageIndex int) (Status, error)
}

// Recorder writes the slot's per-frame data and records its command buffer.
// It is called only after the slot's fence has been waited on.
type Recorder interface {
	Record(slot *Slot, imageIndex int) error
}

type Swapchain interface {
	State() swapchain.State
	Invalidate()
	Recreate() error
}

type Scheduler struct {
	driver    Driver
	swapchain Swapchain
	recorder  Recorder
	log       *slog.Logger

	slots   [FramesInFlight]*Slot
	current int
	frames  uint64
}

func NewScheduler(driver Driver, sc Swapchain, recorder Recorder, slots [FramesInFlight]*Slot, log *slog.Logger) *Scheduler {
	return &Scheduler{
		driver:    driver,
		swapchain: sc,
		recorder:  recorder,
		slots:     slots,
		log:       log,
	}
}

// Current is the index of the slot the next frame will use.
func (s *Scheduler) Current() int {
	return s.current
}

// Frames counts completed frames.
func (s *Scheduler) Frames() uint64 {
	return s.frames
}

// DrawFrame produces one frame. resized reports an external resize since
// the previous frame. If the swapchain cannot be made Active (the window
// closed while minimized) no frame is drawn.
func (s *Scheduler) DrawFrame(resized bool) error {
	if resized {
		s.swapchain.Invalidate()
	}

	if s.swapchain.State() == swapchain.Invalid {
		err := s.swapchain.Recreate()
		if err != nil {
			return err
		}
		if s.swapchain.State() != swapchain.Active {
			return nil
		}
	}

	slot := s.slots[s.current]

	err := s.driver.WaitForFence(slot)
	if err != nil {
		return err
	}

	imageIndex, status, err := s.driver.AcquireNextImage(slot)
	if err != nil {
		return err
	}
	switch status {
	case OutOfDate:
		return errors.Wrapf(ErrAcquireOutOfDate, "slot %d", slot.Index)
	case Suboptimal:
		s.log.Debug("suboptimal swapchain at acquire", slog.Int("slot", slot.Index))
		s.swapchain.Invalidate()
	}

	err = s.driver.ResetFence(slot)
	if err != nil {
		return err
	}

	err = s.recorder.Record(slot, imageIndex)
	if err != nil {
		return err
	}

	err = s.driver.Submit(slot)
	if err != nil {
		return err
	}

	status, err = s.driver.Present(slot, imageIndex)
	if err != nil {
		return err
	}
	if status != Success {
		s.log.Debug("swapchain needs recreation after present", slog.String("status", status.String()))
		s.swapchain.Invalidate()
	}

	s.current = (s.current + 1) % FramesInFlight
	s.frames++
	return nil
}
