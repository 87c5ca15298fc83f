// Package term renders frames into a terminal as 24-bit ANSI half-block
// cells. Each character cell covers two vertically stacked pixels: the upper
// half-block glyph takes the top pixel as foreground and the bottom pixel as
// background, so a W x H pixel frame becomes W columns by H/2 rows of text.
package term

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/ryanw/byd-go/engine/logger"
)

const upperHalfBlock = "▀"

// Presenter displays RGBA frames in a terminal at a fixed frame pacing.
type Presenter interface {
	// Present downsamples the frame to the presenter's cell grid, emits it as
	// ANSI half-block cells, and blocks until the next frame slot so output
	// stays at the configured frame rate.
	//
	// Parameters:
	//   - pixels: tightly packed RGBA pixel data
	//   - width: frame width in pixels
	//   - height: frame height in pixels
	//
	// Returns:
	//   - error: error if the frame could not be written
	Present(pixels []byte, width, height int) error

	// Size returns the presenter's target resolution in pixels.
	//
	// Returns:
	//   - int: target width in pixels
	//   - int: target height in pixels
	Size() (int, int)

	// Close restores the cursor and terminal style.
	//
	// Returns:
	//   - error: error if the restore sequence could not be written
	Close() error
}

// presenter is the implementation of the Presenter interface.
type presenter struct {
	out    io.Writer
	width  int
	height int

	interval time.Duration
	next     time.Time

	started bool
	closed  bool

	buf strings.Builder
}

var _ Presenter = &presenter{}

// NewPresenter creates a Presenter writing to stdout at 128x128 pixels and
// 30 frames per second unless configured otherwise.
//
// Parameters:
//   - options: functional options to configure the presenter
//
// Returns:
//   - Presenter: the configured presenter
func NewPresenter(options ...PresenterBuilderOption) Presenter {
	p := &presenter{
		out:      os.Stdout,
		width:    128,
		height:   128,
		interval: time.Second / 30,
	}
	for _, opt := range options {
		opt(p)
	}
	// Half-block cells consume pixel rows in pairs.
	if p.height%2 != 0 {
		p.height++
	}
	logger.Debug("terminal presenter created", "width", p.width, "height", p.height, "interval", p.interval)
	return p
}

func (p *presenter) Size() (int, int) {
	return p.width, p.height
}

func (p *presenter) Present(pixels []byte, width, height int) error {
	if p.closed {
		return fmt.Errorf("presenter is closed")
	}
	if len(pixels) < width*height*4 {
		return fmt.Errorf("frame data too short: got %d bytes for %dx%d", len(pixels), width, height)
	}

	p.pace()

	p.buf.Reset()
	if !p.started {
		// DECTCEM hide cursor; no ansi helper for the raw mode string.
		p.buf.WriteString("\x1b[?25l")
		p.buf.WriteString(ansi.EraseDisplay(2))
		p.started = true
	} else {
		p.buf.WriteString(ansi.CursorUp(p.height / 2))
	}
	p.buf.WriteString("\r")

	renderHalfBlocks(&p.buf, pixels, width, height, p.width, p.height)

	_, err := io.WriteString(p.out, p.buf.String())
	return err
}

func (p *presenter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	// Show cursor again and drop any lingering color state.
	_, err := io.WriteString(p.out, ansi.ResetStyle+"\x1b[?25h\n")
	return err
}

// pace sleeps until the next frame slot. A presenter that has fallen more
// than one interval behind resnaps to now instead of bursting frames.
func (p *presenter) pace() {
	if p.interval <= 0 {
		return
	}
	now := time.Now()
	if p.next.IsZero() || now.Sub(p.next) > p.interval {
		p.next = now
	}
	if wait := p.next.Sub(now); wait > 0 {
		time.Sleep(wait)
	}
	p.next = p.next.Add(p.interval)
}

// renderHalfBlocks emits the frame as half-block cells, nearest-neighbor
// sampled from the source frame to dstWidth x dstHeight pixels. Consecutive
// cells with identical colors reuse the active style so a flat frame stays
// cheap to write.
func renderHalfBlocks(buf *strings.Builder, pixels []byte, srcWidth, srcHeight, dstWidth, dstHeight int) {
	var prevTop, prevBottom ansi.TrueColor
	havePrev := false

	for row := 0; row < dstHeight/2; row++ {
		for col := 0; col < dstWidth; col++ {
			top := samplePixel(pixels, srcWidth, srcHeight, dstWidth, dstHeight, col, row*2)
			bottom := samplePixel(pixels, srcWidth, srcHeight, dstWidth, dstHeight, col, row*2+1)

			if !havePrev || top != prevTop || bottom != prevBottom {
				buf.WriteString(ansi.Style{}.ForegroundColor(top).BackgroundColor(bottom).String())
				prevTop, prevBottom = top, bottom
				havePrev = true
			}
			buf.WriteString(upperHalfBlock)
		}
		buf.WriteString(ansi.ResetStyle)
		buf.WriteString("\r\n")
		havePrev = false
	}
}

// samplePixel nearest-neighbor samples the source frame at a destination
// coordinate and packs the result as a 24-bit color.
func samplePixel(pixels []byte, srcWidth, srcHeight, dstWidth, dstHeight, x, y int) ansi.TrueColor {
	sx := x * srcWidth / dstWidth
	sy := y * srcHeight / dstHeight
	if sx >= srcWidth {
		sx = srcWidth - 1
	}
	if sy >= srcHeight {
		sy = srcHeight - 1
	}
	i := (sy*srcWidth + sx) * 4
	return ansi.TrueColor(uint32(pixels[i])<<16 | uint32(pixels[i+1])<<8 | uint32(pixels[i+2]))
}
