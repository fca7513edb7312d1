package renderer

import "github.com/spaghettifunk/phase/engine/renderer/metadata"

// ResizeMailbox is a one-slot, last-write-wins mailbox for resize requests.
// The host posts the latest window size from its event handler; the frame
// loop takes it at the start of the next frame. Posting never touches GPU
// resources.
type ResizeMailbox struct {
	pending   bool
	requested metadata.Extent
	// Raised when acquire or present reported a stale swapchain, or when the
	// last rebuild produced no images. Cleared by a successful rebuild.
	stale bool
}

// NewResizeMailbox starts with the initial window size as the last request.
func NewResizeMailbox(initial metadata.Extent) *ResizeMailbox {
	return &ResizeMailbox{requested: initial}
}

// Post records the latest size and marks it pending. Repeated posts before
// the next Take coalesce into one.
func (m *ResizeMailbox) Post(extent metadata.Extent) {
	m.requested = extent
	m.pending = true
}

// Take clears the pending flag and returns the latest size along with
// whether a post happened since the previous Take.
func (m *ResizeMailbox) Take() (metadata.Extent, bool) {
	pending := m.pending
	m.pending = false
	return m.requested, pending
}

// Requested is the most recently posted size, or the initial size.
func (m *ResizeMailbox) Requested() metadata.Extent {
	return m.requested
}

func (m *ResizeMailbox) MarkStale() {
	m.stale = true
}

func (m *ResizeMailbox) ClearStale() {
	m.stale = false
}

func (m *ResizeMailbox) Stale() bool {
	return m.stale
}
