package tuitest

import (
	"regexp"
	"strings"
)

// Frame is one screenful of output, from one erase-display sequence to the
// next, with escape codes removed.
type Frame struct {
	Index int
	Plain string
}

var (
	// ED (erase in display) starts a fresh screen in both renderers.
	eraseDisplay = regexp.MustCompile(`\x1b\[[0-9;]*J`)
	// CSI sequences, OSC strings and the SI/SO charset shifts.
	escapeCodes = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]|\x1b\][^\x07]*(?:\x07|\x1b\\)|[\x0e\x0f]`)
)

func parseFrames(raw []byte) []Frame {
	stream := strings.ReplaceAll(string(raw), "\r", "")
	var frames []Frame
	for _, screen := range eraseDisplay.Split(stream, -1) {
		plain := tidy(stripANSI(screen))
		if plain == "" {
			continue
		}
		frames = append(frames, Frame{Index: len(frames), Plain: plain})
	}
	return frames
}

// Contains reports whether any frame shows text.
func (r *Recording) Contains(text string) bool {
	_, ok := r.FrameContaining(text)
	return ok
}

// FrameContaining returns the last frame whose plain text includes text.
func (r *Recording) FrameContaining(text string) (Frame, bool) {
	if r == nil {
		return Frame{}, false
	}
	for i := len(r.Frames) - 1; i >= 0; i-- {
		if strings.Contains(r.Frames[i].Plain, text) {
			return r.Frames[i], true
		}
	}
	return Frame{}, false
}

func stripANSI(s string) string {
	return escapeCodes.ReplaceAllString(s, "")
}

// tidy drops trailing spaces on each line, trailing blank lines and NUL
// padding.
func tidy(s string) string {
	lines := strings.Split(strings.Trim(s, "\x00"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
