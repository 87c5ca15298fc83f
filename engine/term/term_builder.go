package term

import (
	"io"
	"time"
)

// PresenterBuilderOption is a functional option for configuring a Presenter.
type PresenterBuilderOption func(p *presenter)

// WithOutput sets the writer frames are emitted to. Defaults to stdout.
//
// Parameters:
//   - out: destination writer
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithOutput(out io.Writer) PresenterBuilderOption {
	return func(p *presenter) {
		if out != nil {
			p.out = out
		}
	}
}

// WithResolution sets the target resolution in pixels. Odd heights round up
// so every cell row has both pixel rows.
//
// Parameters:
//   - width: target width in pixels
//   - height: target height in pixels
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithResolution(width, height int) PresenterBuilderOption {
	return func(p *presenter) {
		if width > 0 {
			p.width = width
		}
		if height > 0 {
			p.height = height
		}
	}
}

// WithFPS sets the frame pacing. Zero or negative disables pacing so Present
// returns as fast as frames arrive.
//
// Parameters:
//   - fps: frames per second
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithFPS(fps int) PresenterBuilderOption {
	return func(p *presenter) {
		if fps <= 0 {
			p.interval = 0
			return
		}
		p.interval = time.Second / time.Duration(fps)
	}
}
