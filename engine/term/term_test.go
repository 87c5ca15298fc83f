package term

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solidFrame returns a width x height RGBA frame filled with one color.
func solidFrame(width, height int, r, g, b byte) []byte {
	pixels := make([]byte, width*height*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i] = r
		pixels[i+1] = g
		pixels[i+2] = b
		pixels[i+3] = 255
	}
	return pixels
}

func TestRenderHalfBlocksRowAndCellCounts(t *testing.T) {
	var buf strings.Builder
	renderHalfBlocks(&buf, solidFrame(8, 8, 0, 0, 0), 8, 8, 4, 4)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "\r\n"), "4 pixel rows pack into 2 cell rows")
	assert.Equal(t, 8, strings.Count(out, upperHalfBlock), "4 columns per cell row")
}

func TestRenderHalfBlocksCoalescesUniformColor(t *testing.T) {
	var buf strings.Builder
	renderHalfBlocks(&buf, solidFrame(4, 4, 255, 0, 0), 4, 4, 4, 4)

	out := buf.String()
	style := ansi.Style{}.ForegroundColor(ansi.TrueColor(0xFF0000)).BackgroundColor(ansi.TrueColor(0xFF0000)).String()
	// One style per row, not one per cell.
	assert.Equal(t, 2, strings.Count(out, style))
}

func TestRenderHalfBlocksSplitsTopAndBottomPixels(t *testing.T) {
	// Top pixel row red, bottom pixel row blue.
	pixels := make([]byte, 1*2*4)
	pixels[0], pixels[3] = 255, 255
	pixels[6], pixels[7] = 255, 255

	var buf strings.Builder
	renderHalfBlocks(&buf, pixels, 1, 2, 1, 2)

	want := ansi.Style{}.ForegroundColor(ansi.TrueColor(0xFF0000)).BackgroundColor(ansi.TrueColor(0x0000FF)).String()
	assert.Contains(t, buf.String(), want)
}

func TestSamplePixelNearestNeighborDownscale(t *testing.T) {
	// 4x4 source split into quadrants; 2x2 destination picks one per quadrant.
	pixels := make([]byte, 4*4*4)
	setPixel := func(x, y int, r, g, b byte) {
		i := (y*4 + x) * 4
		pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = r, g, b, 255
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			switch {
			case x < 2 && y < 2:
				setPixel(x, y, 255, 0, 0)
			case x >= 2 && y < 2:
				setPixel(x, y, 0, 255, 0)
			case x < 2:
				setPixel(x, y, 0, 0, 255)
			default:
				setPixel(x, y, 255, 255, 255)
			}
		}
	}

	assert.Equal(t, ansi.TrueColor(0xFF0000), samplePixel(pixels, 4, 4, 2, 2, 0, 0))
	assert.Equal(t, ansi.TrueColor(0x00FF00), samplePixel(pixels, 4, 4, 2, 2, 1, 0))
	assert.Equal(t, ansi.TrueColor(0x0000FF), samplePixel(pixels, 4, 4, 2, 2, 0, 1))
	assert.Equal(t, ansi.TrueColor(0xFFFFFF), samplePixel(pixels, 4, 4, 2, 2, 1, 1))
}

func TestPresentEmitsFrameAndRepositions(t *testing.T) {
	var out strings.Builder
	p := NewPresenter(WithOutput(&out), WithResolution(4, 4), WithFPS(0))

	require.NoError(t, p.Present(solidFrame(4, 4, 10, 20, 30), 4, 4))
	first := out.String()
	assert.Contains(t, first, ansi.EraseDisplay(2), "first frame clears the screen")
	assert.NotContains(t, first, ansi.CursorUp(2))

	out.Reset()
	require.NoError(t, p.Present(solidFrame(4, 4, 10, 20, 30), 4, 4))
	assert.Contains(t, out.String(), ansi.CursorUp(2), "later frames rewind over the previous frame")
	assert.NotContains(t, out.String(), ansi.EraseDisplay(2))
}

func TestPresentRejectsShortFrames(t *testing.T) {
	p := NewPresenter(WithOutput(&strings.Builder{}), WithResolution(4, 4), WithFPS(0))
	err := p.Present(make([]byte, 3), 4, 4)
	assert.Error(t, err)
}

func TestCloseRestoresTerminalAndStopsPresenting(t *testing.T) {
	var out strings.Builder
	p := NewPresenter(WithOutput(&out), WithResolution(4, 4), WithFPS(0))

	require.NoError(t, p.Close())
	assert.Contains(t, out.String(), ansi.ResetStyle)

	err := p.Present(solidFrame(4, 4, 0, 0, 0), 4, 4)
	assert.Error(t, err)

	// Closing twice is harmless.
	assert.NoError(t, p.Close())
}

func TestOddHeightRoundsUp(t *testing.T) {
	p := NewPresenter(WithResolution(8, 7), WithFPS(0))
	_, h := p.Size()
	assert.Equal(t, 8, h)
}
