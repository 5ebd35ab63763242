package debug

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestInit_OffProducesNoOutput(t *testing.T) {
	Init(LevelOff)
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("hidden %d", 1)
	Error(errors.New("hidden"))

	if buf.Len() != 0 {
		t.Errorf("expected no output at level 0, got %q", buf.String())
	}
	if IsEnabled(LevelInfo) {
		t.Error("IsEnabled(LevelInfo) should be false at level 0")
	}
}

func TestLevelGating(t *testing.T) {
	cases := []struct {
		name    string
		level   int
		logFunc func()
		want    bool
	}{
		{"info_at_info", LevelInfo, func() { Info("msg") }, true},
		{"live_at_info", LevelInfo, func() { Live("msg") }, false},
		{"live_at_live", LevelLive, func() { Live("msg") }, true},
		{"verbose_at_live", LevelLive, func() { Verbose("msg") }, false},
		{"verbose_at_verbose", LevelVerbose, func() { Verbose("msg") }, true},
		{"trace_at_verbose", LevelVerbose, func() { Trace("msg") }, false},
		{"trace_at_trace", LevelTrace, func() { Trace("msg") }, true},
		{"frame_at_live", LevelLive, func() { Frame(1, "a.png", 10) }, true},
		{"gpio_at_verbose", LevelVerbose, func() { GPIO("ReadPin", 17, nil) }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			Init(tc.level)
			defer Init(LevelOff)
			var buf bytes.Buffer
			SetOutput(&buf)

			tc.logFunc()

			if got := buf.Len() > 0; got != tc.want {
				t.Errorf("output present = %v, want %v (%q)", got, tc.want, buf.String())
			}
		})
	}
}

func TestValue_IncludesField(t *testing.T) {
	Init(LevelInfo)
	defer Init(LevelOff)
	var buf bytes.Buffer
	SetOutput(&buf)

	Value("Rate", 10)

	if !strings.Contains(buf.String(), "Rate=10") {
		t.Errorf("expected field in output, got %q", buf.String())
	}
}

func TestFmt(t *testing.T) {
	Init(LevelOff)
	if got := Fmt("%d", 3); got != "" {
		t.Errorf("Fmt at level 0 = %q, want empty", got)
	}
	Init(LevelInfo)
	defer Init(LevelOff)
	if got := Fmt("%d", 3); got != "3" {
		t.Errorf("Fmt at level 1 = %q, want \"3\"", got)
	}
}
