// Package overlay defines how a debug UI hooks into the frame and provides
// a statistics overlay that reports frame timing.
package overlay

import (
	"time"

	"github.com/vkngwrapper/core/core1_0"
	"golang.org/x/exp/slog"
)

// InitInfo is what an overlay needs from the renderer to create its own
// GPU objects.
type InitInfo struct {
	DescriptorPool core1_0.DescriptorPool
	RenderPass     core1_0.RenderPass
	ImageCount     int
}

// Overlay is drawn last inside the main render pass. Begin starts the
// overlay's frame; End records its draw commands into cmd.
type Overlay interface {
	Init(info InitInfo) error
	Begin()
	End(cmd core1_0.CommandBuffer)
	Cleanup()
}

// Stats keeps the latest frame statistics and logs them. It records no
// draw commands.
type Stats struct {
	log  *slog.Logger
	info InitInfo

	fps       int
	frameTime time.Duration
	frames    int
}

var _ Overlay = (*Stats)(nil)

func NewStats(log *slog.Logger) *Stats {
	return &Stats{log: log}
}

func (s *Stats) Init(info InitInfo) error {
	s.info = info
	s.log.Debug("overlay initialized", slog.Int("images", info.ImageCount))
	return nil
}

// Report records the frame rate computed by an FPSCounter.
func (s *Stats) Report(fps int, frameTime time.Duration) {
	s.fps = fps
	s.frameTime = frameTime
	s.log.Debug("frame stats", slog.Int("fps", fps), slog.Duration("frame_time", frameTime))
}

func (s *Stats) FPS() int {
	return s.fps
}

func (s *Stats) FrameTime() time.Duration {
	return s.frameTime
}

// Frames is the number of overlay frames begun so far.
func (s *Stats) Frames() int {
	return s.frames
}

func (s *Stats) Begin() {
	s.frames++
}

func (s *Stats) End(core1_0.CommandBuffer) {}

func (s *Stats) Cleanup() {
	s.info = InitInfo{}
}
