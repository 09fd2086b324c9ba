// Package transaction implements property-level undo/redo. A transaction
// groups the before/after deltas of one user-visible operation; committed
// transactions form a flat linear history, never a tree. The document owns
// delta application; this package owns the bookkeeping.
package transaction

import (
	"errors"

	"github.com/vk/paramdoc/internal/property"
)

var (
	// ErrTransactionOpen is returned by Open when a transaction is already
	// in progress. The history is linear; transactions do not nest.
	ErrTransactionOpen = errors.New("transaction already open")

	// ErrNoTransaction is returned by Commit/Abort/Record without an open
	// transaction.
	ErrNoTransaction = errors.New("no open transaction")

	// ErrNothingToUndo is returned by Undo on an empty undo stack.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by Redo on an empty redo stack.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DeltaKind distinguishes what a delta restores: a property value or a
// formula binding.
type DeltaKind int

const (
	// ValueDelta records a property value change.
	ValueDelta DeltaKind = iota
	// BindingDelta records a formula bind, rebind, or unbind. The formula
	// fields hold the source text; empty means no binding on that side.
	BindingDelta
)

// Delta is one recorded change. Value deltas use Old/New; binding deltas
// use OldFormula/NewFormula.
type Delta struct {
	Kind       DeltaKind
	ObjectID   string
	Property   string
	Old        property.Value
	New        property.Value
	OldFormula string
	NewFormula string
}

// Transaction is an ordered list of deltas under one logical operation.
type Transaction struct {
	Name   string
	deltas []Delta
	index  map[deltaKey]int
}

type deltaKey struct {
	kind     DeltaKind
	objectID string
	property string
}

// Deltas returns the recorded deltas in application order.
func (t *Transaction) Deltas() []Delta {
	out := make([]Delta, len(t.deltas))
	copy(out, t.deltas)
	return out
}

// Empty reports whether nothing was recorded.
func (t *Transaction) Empty() bool { return len(t.deltas) == 0 }

// record merges repeated writes to one property: the first recorded old
// side survives and only the new side is updated, so undo restores the
// state from before the whole operation rather than an intermediate one.
// Value and binding deltas to the same property are tracked independently.
func (t *Transaction) record(d Delta) {
	key := deltaKey{kind: d.Kind, objectID: d.ObjectID, property: d.Property}
	if i, ok := t.index[key]; ok {
		t.deltas[i].New = d.New
		t.deltas[i].NewFormula = d.NewFormula
		return
	}
	t.index[key] = len(t.deltas)
	t.deltas = append(t.deltas, d)
}

// dropObject discards every delta referencing the object and rebuilds the
// merge index.
func (t *Transaction) dropObject(id string) {
	kept := t.deltas[:0]
	t.index = make(map[deltaKey]int)
	for _, d := range t.deltas {
		if d.ObjectID == id {
			continue
		}
		t.index[deltaKey{kind: d.Kind, objectID: d.ObjectID, property: d.Property}] = len(kept)
		kept = append(kept, d)
	}
	t.deltas = kept
}

// Manager holds the open transaction and the undo/redo stacks of one
// document. Like the rest of the document state it is confined to a single
// thread of control.
type Manager struct {
	current *Transaction
	undo    []*Transaction
	redo    []*Transaction
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Open begins capturing deltas under the given operation name.
func (m *Manager) Open(name string) error {
	if m.current != nil {
		return ErrTransactionOpen
	}
	m.current = &Transaction{Name: name, index: make(map[deltaKey]int)}
	return nil
}

// Active reports whether a transaction is open.
func (m *Manager) Active() bool { return m.current != nil }

// Record appends a value delta to the open transaction.
func (m *Manager) Record(objectID, prop string, old, new property.Value) error {
	if m.current == nil {
		return ErrNoTransaction
	}
	m.current.record(Delta{Kind: ValueDelta, ObjectID: objectID, Property: prop, Old: old, New: new})
	return nil
}

// RecordBinding appends a formula-binding delta to the open transaction.
// An empty formula means the property had, or ends up with, no binding.
func (m *Manager) RecordBinding(objectID, prop, oldFormula, newFormula string) error {
	if m.current == nil {
		return ErrNoTransaction
	}
	m.current.record(Delta{
		Kind:       BindingDelta,
		ObjectID:   objectID,
		Property:   prop,
		OldFormula: oldFormula,
		NewFormula: newFormula,
	})
	return nil
}

// Commit pushes the open transaction onto the undo stack and discards the
// redo tail: committing new work after an undo forgets the undone future.
// An empty transaction is dropped rather than remembered.
func (m *Manager) Commit() error {
	if m.current == nil {
		return ErrNoTransaction
	}
	t := m.current
	m.current = nil
	if t.Empty() {
		return nil
	}
	m.undo = append(m.undo, t)
	m.redo = nil
	return nil
}

// Abort discards the open transaction and returns its deltas in reverse
// order so the caller can roll every recorded change back, leaving the
// document exactly as it was before Open.
func (m *Manager) Abort() ([]Delta, error) {
	if m.current == nil {
		return nil, ErrNoTransaction
	}
	t := m.current
	m.current = nil
	return reversed(t.deltas), nil
}

// Undo moves the newest committed transaction to the redo stack and returns
// it; the caller applies the old values in the returned (reverse) order.
func (m *Manager) Undo() (*Transaction, []Delta, error) {
	if m.current != nil {
		return nil, nil, ErrTransactionOpen
	}
	if len(m.undo) == 0 {
		return nil, nil, ErrNothingToUndo
	}
	t := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, t)
	return t, reversed(t.deltas), nil
}

// Redo is the inverse of Undo: it moves the newest undone transaction back
// to the undo stack and returns its deltas in forward order.
func (m *Manager) Redo() (*Transaction, []Delta, error) {
	if m.current != nil {
		return nil, nil, ErrTransactionOpen
	}
	if len(m.redo) == 0 {
		return nil, nil, ErrNothingToRedo
	}
	t := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, t)
	d := make([]Delta, len(t.deltas))
	copy(d, t.deltas)
	return t, d, nil
}

// PruneObject erases every delta referencing the object from the open
// transaction and from both history stacks. Transactions emptied by the
// pruning are forgotten entirely, so undo and redo never try to restore
// state on an object that no longer exists.
func (m *Manager) PruneObject(id string) {
	if m.current != nil {
		m.current.dropObject(id)
	}
	m.undo = pruneStack(m.undo, id)
	m.redo = pruneStack(m.redo, id)
}

func pruneStack(stack []*Transaction, id string) []*Transaction {
	kept := stack[:0]
	for _, t := range stack {
		t.dropObject(id)
		if t.Empty() {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// UndoCount returns the number of undoable transactions.
func (m *Manager) UndoCount() int { return len(m.undo) }

// RedoCount returns the number of redoable transactions.
func (m *Manager) RedoCount() int { return len(m.redo) }

func reversed(deltas []Delta) []Delta {
	out := make([]Delta, len(deltas))
	for i, d := range deltas {
		out[len(deltas)-1-i] = d
	}
	return out
}
