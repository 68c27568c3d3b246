package window

import "time"

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar until the host replaces it
// with SetTitle.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial client area size. Values outside the size limits are
// clamped when the window is created.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
		w.height = height
	}
}

// WithSizeLimits sets the range the user may resize the window within.
//
// Parameters:
//   - minWidth: minimum width in pixels
//   - minHeight: minimum height in pixels
//   - maxWidth: maximum width in pixels
//   - maxHeight: maximum height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth = minWidth
		w.minHeight = minHeight
		w.maxWidth = maxWidth
		w.maxHeight = maxHeight
	}
}

// WithKeyRepeat controls whether auto-repeat events of a held key reach the key down
// callback. Hosts that treat a held key as a continuous intent leave it on.
//
// Parameters:
//   - repeat: true to forward repeats as key presses
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithKeyRepeat(repeat bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.keyRepeat = repeat
	}
}

// WithEventTimeout sets how long one ProcessMessages iteration waits for input before
// running the update callback.
//
// Parameters:
//   - timeout: the wait per iteration
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithEventTimeout(timeout time.Duration) WindowBuilderOption {
	return func(w *engineWindow) {
		w.eventTimeout = timeout
	}
}
