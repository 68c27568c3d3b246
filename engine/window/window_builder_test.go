package window

import (
	"testing"
	"time"
)

func TestWindowOptions(t *testing.T) {
	tests := []struct {
		name          string
		options       []WindowBuilderOption
		width, height int
		keyRepeat     bool
		timeout       time.Duration
	}{
		{
			name:      "defaults",
			width:     960,
			height:    540,
			keyRepeat: true,
			timeout:   time.Second / 60,
		},
		{
			name:      "size within limits",
			options:   []WindowBuilderOption{WithSize(800, 600), WithKeyRepeat(false), WithEventTimeout(time.Millisecond)},
			width:     800,
			height:    600,
			keyRepeat: false,
			timeout:   time.Millisecond,
		},
		{
			name:      "size clamped to limits",
			options:   []WindowBuilderOption{WithSizeLimits(400, 300, 640, 480), WithSize(100, 2000)},
			width:     400,
			height:    480,
			keyRepeat: true,
			timeout:   time.Second / 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newEngineWindow(tt.options...)
			if w.width != tt.width || w.height != tt.height {
				t.Fatalf("expected %dx%d, got %dx%d", tt.width, tt.height, w.width, w.height)
			}
			if w.keyRepeat != tt.keyRepeat || w.eventTimeout != tt.timeout {
				t.Fatalf("expected repeat=%v timeout=%v, got repeat=%v timeout=%v", tt.keyRepeat, tt.timeout, w.keyRepeat, w.eventTimeout)
			}
		})
	}

	if w := newEngineWindow(WithTitle("Robot 1")); w.Width() != 960 || w.title != "Robot 1" {
		t.Fatalf("unexpected window %q %d", w.title, w.Width())
	}
}
