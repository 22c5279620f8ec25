package timeline

// Snapshot is an immutable copy of a timeline's clips and tracks.
type Snapshot struct {
	Clips  []Clip  `json:"clips"`
	Tracks []Track `json:"tracks"`
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{Clips: cloneClips(s.Clips), Tracks: cloneTracks(s.Tracks)}
}

// History is a linear undo list with a cursor pointing at the snapshot that
// reflects current state. Recording after an undo discards the redo tail.
type History struct {
	entries []Snapshot
	cursor  int
}

func NewHistory() *History {
	return &History{cursor: -1}
}

// Record appends s as the newest state.
func (h *History) Record(s Snapshot) {
	h.entries = append(h.entries[:h.cursor+1], s.clone())
	h.cursor = len(h.entries) - 1
}

// Undo steps back one entry and returns the snapshot to restore.
func (h *History) Undo() (Snapshot, bool) {
	if !h.CanUndo() {
		return Snapshot{}, false
	}
	h.cursor--
	return h.entries[h.cursor].clone(), true
}

// Redo steps forward one entry and returns the snapshot to restore.
func (h *History) Redo() (Snapshot, bool) {
	if !h.CanRedo() {
		return Snapshot{}, false
	}
	h.cursor++
	return h.entries[h.cursor].clone(), true
}

func (h *History) CanUndo() bool {
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

func (h *History) Reset() {
	h.entries = nil
	h.cursor = -1
}

func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) Cursor() int {
	return h.cursor
}
