package tuitest

import (
	"bytes"
	"testing"
)

func TestParseFramesSkipsBlankScreens(t *testing.T) {
	frames := parseFrames([]byte("\x1b[2J   \r\n\x00\x1b[2J\x1b[?25lBioEngine\r\n"))
	if len(frames) != 1 || frames[0].Plain != "BioEngine" || frames[0].Index != 0 {
		t.Fatalf("blank screen not skipped: %#v", frames)
	}
}

func TestParseFramesSplitsOnClear(t *testing.T) {
	raw := []byte("\x1b[H\x1b[2J\x1b[1mHome\x1b[0m   \r\nline two  \r\n\x1b[2J\x1b[HFeatures\r\n\r\n")
	frames := parseFrames(raw)
	if len(frames) != 2 {
		t.Fatalf("frame count got %d want 2: %#v", len(frames), frames)
	}
	if frames[0].Plain != "Home\nline two" {
		t.Fatalf("first frame got %q", frames[0].Plain)
	}
	if frames[1].Plain != "Features" {
		t.Fatalf("second frame got %q", frames[1].Plain)
	}

	rec := &Recording{Frames: frames}
	if !rec.Contains("line two") || rec.Contains("About") {
		t.Fatal("Contains should search every frame")
	}
	frame, ok := rec.FrameContaining("e")
	if !ok || frame.Index != 1 {
		t.Fatalf("FrameContaining should prefer the latest frame, got %#v", frame)
	}
	if _, ok := (*Recording)(nil).FrameContaining("Home"); ok {
		t.Fatal("nil recording has no frames")
	}
}

func TestStripANSIRemovesOSC(t *testing.T) {
	got := stripANSI("\x1b]0;title\x07\x1b[31mred\x1b[0m\x0f")
	if got != "red" {
		t.Fatalf("stripANSI got %q", got)
	}
}

func TestTerminalResponderAnswersInOrder(t *testing.T) {
	var out bytes.Buffer
	tr := newTerminalResponder(&out)
	tr.Process([]byte("junk\x1b]11;?\x07more\x1b[6n"))
	want := "\x1b]11;rgb:0000/0000/0000\x07\x1b[1;1R"
	if out.String() != want {
		t.Fatalf("responses got %q want %q", out.String(), want)
	}

	out.Reset()
	tr.Process([]byte("\x1b[6"))
	tr.Process([]byte("n"))
	if out.String() != "\x1b[1;1R" {
		t.Fatalf("split query not answered, got %q", out.String())
	}
}
