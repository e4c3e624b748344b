package nav

import "sync"

type (
	// Location is a screen address plus whatever state was attached to the
	// navigation that produced it (e.g. the post-login return location).
	Location struct {
		Path  string
		State map[string]string
	}

	Router interface {
		Current() Location
		Path() string
		// Push navigates to path, keeping the current entry in history.
		Push(path string, state ...map[string]string)
		// Replace navigates to path, replacing the current entry.
		Replace(path string, state ...map[string]string)
	}
)

// History is an in-memory navigation stack, the client shell's stand-in for
// the browser history.
type History struct {
	mu    sync.Mutex
	stack []Location
}

var _ Router = (*History)(nil)

func NewHistory(start string) *History {
	return &History{stack: []Location{{Path: start}}}
}

func (h *History) Current() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stack[len(h.stack)-1]
}

func (h *History) Path() string {
	return h.Current().Path
}

func (h *History) Push(path string, state ...map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stack = append(h.stack, newLocation(path, state))
}

func (h *History) Replace(path string, state ...map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stack[len(h.stack)-1] = newLocation(path, state)
}

func newLocation(path string, state []map[string]string) Location {
	loc := Location{Path: path}
	if len(state) > 0 {
		loc.State = state[0]
	}
	return loc
}
