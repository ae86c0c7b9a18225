package stat

import "math"

// Epsilon is the smallest layer movement that produces a Change.
const Epsilon = 0.001

// Change describes a layer value that moved by more than Epsilon during a
// recompute.
type Change struct {
	Kind  Kind
	Layer Layer
	Old   float64
	New   float64
}

// Delta returns New - Old.
func (c Change) Delta() float64 { return c.New - c.Old }

// Listener receives change notifications synchronously.
type Listener func(Change)

// Subscription identifies one listener registration.
// The zero Subscription refers to nothing.
type Subscription struct {
	id uint64
}

// Valid reports whether s came from a successful Subscribe.
func (s Subscription) Valid() bool { return s.id != 0 }

type listenerSlot struct {
	id uint64
	fn Listener
}

// listenerList dispatches in registration order. Every Subscribe call gets
// its own id, so registering the same func twice yields two slots that are
// removed independently.
type listenerList struct {
	slots  []listenerSlot
	nextID uint64
}

func (l *listenerList) subscribe(fn Listener) Subscription {
	if fn == nil {
		return Subscription{}
	}
	l.nextID++
	l.slots = append(l.slots, listenerSlot{id: l.nextID, fn: fn})
	return Subscription{id: l.nextID}
}

func (l *listenerList) unsubscribe(s Subscription) bool {
	if !s.Valid() {
		return false
	}
	for i, slot := range l.slots {
		if slot.id == s.id {
			l.slots = append(l.slots[:i:i], l.slots[i+1:]...)
			return true
		}
	}
	return false
}

func (l *listenerList) len() int { return len(l.slots) }

func (l *listenerList) emit(c Change) {
	if len(l.slots) == 0 {
		return
	}
	// Snapshot so a listener may unsubscribe itself mid-dispatch.
	slots := l.slots
	for _, slot := range slots {
		slot.fn(c)
	}
}

func changed(prev, next float64) bool {
	return math.Abs(prev-next) > Epsilon
}
