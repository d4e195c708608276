package wininput

// absoluteScale is the SendInput coordinate range for MOUSEEVENTF_ABSOLUTE.
const absoluteScale = 65535

// virtualDesktop is the bounding box of all monitors in screen pixels.
type virtualDesktop struct {
	Left   int32
	Top    int32
	Width  int32
	Height int32
}

// clamp keeps a cursor position on the desktop, the way Windows does for
// real pointer motion.
func (d virtualDesktop) clamp(x, y int32) (int32, int32) {
	return clampAxis(x, d.Left, d.Width), clampAxis(y, d.Top, d.Height)
}

// normalize converts a desktop pixel position into SendInput absolute
// coordinates relative to the virtual desktop.
func (d virtualDesktop) normalize(x, y int32) (int32, int32) {
	return normalizeAxis(x, d.Left, d.Width), normalizeAxis(y, d.Top, d.Height)
}

func clampAxis(v, origin, extent int32) int32 {
	if extent <= 0 {
		return origin
	}
	if v < origin {
		return origin
	}
	if last := origin + extent - 1; v > last {
		return last
	}
	return v
}

func normalizeAxis(v, origin, extent int32) int32 {
	if extent <= 1 {
		return 0
	}
	offset := int64(v - origin)
	// Round to the nearest unit so the pixel maps back to itself.
	return int32((offset*absoluteScale + int64(extent-1)/2) / int64(extent-1))
}
