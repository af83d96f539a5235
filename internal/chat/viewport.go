package chat

// Pixel thresholds for viewport-driven behavior. The view only auto-scrolls
// to a new message when it was already near the bottom, and only loads older
// history when scrolled near the top.
const (
	BottomProximityPx = 160
	TopTriggerPx      = 60
)

// Viewport is the scroll state the UI reports for the message pane.
type Viewport struct {
	ScrollTop     int `json:"scroll_top"`
	Height        int `json:"height"`
	ContentHeight int `json:"content_height"`
}

func (v Viewport) distanceFromBottom() int {
	return v.ContentHeight - v.ScrollTop - v.Height
}

// NearBottom reports whether the view tracks the live conversation.
func (v Viewport) NearBottom() bool {
	return v.distanceFromBottom() <= BottomProximityPx
}

// NearTop reports whether scrolling should trigger a history load.
func (v Viewport) NearTop() bool {
	return v.ScrollTop <= TopTriggerPx
}

// PreservedScrollTop returns the scroll offset that keeps the visible
// content in place after older messages grew the pane to newContentHeight:
// the old offset shifted by the exact height delta.
func (v Viewport) PreservedScrollTop(newContentHeight int) int {
	return v.ScrollTop + (newContentHeight - v.ContentHeight)
}
