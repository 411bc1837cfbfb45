package ledger

import "fmt"

// ActiveIndex is the set of actively listed token ids. Removal is
// swap-and-pop, so the order of ids is not chronological.
//
// Invariant: pos[ids[i]] == i for every i.
type ActiveIndex struct {
	ids []uint64
	pos map[uint64]int
}

func newActiveIndex() *ActiveIndex {
	return &ActiveIndex{pos: make(map[uint64]int)}
}

func (x *ActiveIndex) Len() int {
	return len(x.ids)
}

func (x *ActiveIndex) Contains(id uint64) bool {
	_, ok := x.pos[id]
	return ok
}

// Position returns where id currently sits in the sequence.
func (x *ActiveIndex) Position(id uint64) (int, bool) {
	p, ok := x.pos[id]
	return p, ok
}

func (x *ActiveIndex) add(id uint64) {
	x.pos[id] = len(x.ids)
	x.ids = append(x.ids, id)
}

// remove swaps the last id into id's slot and shrinks the sequence. It
// returns the slot id occupied, or -1 if id was not present.
func (x *ActiveIndex) remove(id uint64) int {
	p, ok := x.pos[id]
	if !ok {
		return -1
	}
	last := len(x.ids) - 1
	if p != last {
		moved := x.ids[last]
		x.ids[p] = moved
		x.pos[moved] = p
	}
	x.ids = x.ids[:last]
	delete(x.pos, id)
	return p
}

// restore undoes remove(id) that returned p.
func (x *ActiveIndex) restore(id uint64, p int) {
	if p == len(x.ids) {
		x.add(id)
		return
	}
	moved := x.ids[p]
	x.ids[p] = id
	x.pos[id] = p
	x.add(moved)
}

// Page returns up to take ids starting at skip, clamped to what exists.
func (x *ActiveIndex) Page(skip, take int) []uint64 {
	if skip < 0 {
		skip = 0
	}
	if take < 0 {
		take = 0
	}
	if skip >= len(x.ids) {
		return []uint64{}
	}
	end := skip + take
	if end > len(x.ids) || end < skip {
		end = len(x.ids)
	}
	out := make([]uint64, end-skip)
	copy(out, x.ids[skip:end])
	return out
}

func (x *ActiveIndex) IDs() []uint64 {
	return x.Page(0, len(x.ids))
}

// Verify checks the position invariant.
func (x *ActiveIndex) Verify() error {
	if len(x.pos) != len(x.ids) {
		return fmt.Errorf("%w: %d ids, %d positions", ErrInvalidState, len(x.ids), len(x.pos))
	}
	for i, id := range x.ids {
		if p, ok := x.Position(id); !ok || p != i {
			return fmt.Errorf("%w: id %d at %d indexed as %d", ErrInvalidState, id, i, p)
		}
	}
	return nil
}

func (t *txn) indexAdd(id uint64) {
	t.l.active.add(id)
	t.onUndo(func() { t.l.active.remove(id) })
}

func (t *txn) indexRemove(id uint64) {
	p := t.l.active.remove(id)
	if p < 0 {
		return
	}
	t.onUndo(func() { t.l.active.restore(id, p) })
}
