package window

// WindowBuilderOption is a functional option for configuring an engineWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
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

// WithSize sets the initial window size. Zero dimensions keep the default.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height uint32) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.width = int(width)
		}
		if height > 0 {
			w.height = int(height)
		}
	}
}

// WithSizeLimits bounds the size the user can resize the window to. A zero bound keeps
// the default for that side.
//
// Parameters:
//   - minWidth, minHeight: smallest size in pixels
//   - maxWidth, maxHeight: largest size in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight uint32) WindowBuilderOption {
	return func(w *engineWindow) {
		set := func(dst *int, v uint32) {
			if v > 0 {
				*dst = int(v)
			}
		}
		set(&w.minWidth, minWidth)
		set(&w.minHeight, minHeight)
		set(&w.maxWidth, maxWidth)
		set(&w.maxHeight, maxHeight)
	}
}
