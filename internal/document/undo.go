package document

import (
	"context"
	"fmt"

	"github.com/vk/paramdoc/internal/property"
	"github.com/vk/paramdoc/internal/transaction"
)

// OpenTransaction begins recording property deltas under one user-visible
// operation name. Transactions form a flat linear history and do not nest.
func (d *Document) OpenTransaction(name string) error {
	return d.txns.Open(name)
}

// CommitTransaction pushes the open transaction onto the undo history and
// clears the redo tail.
func (d *Document) CommitTransaction() error {
	return d.txns.Commit()
}

// AbortTransaction rolls back every delta recorded since OpenTransaction,
// newest first, leaving property values exactly as they were before the
// transaction opened.
func (d *Document) AbortTransaction() error {
	deltas, err := d.txns.Abort()
	if err != nil {
		return err
	}
	return d.applyDeltas(deltas, false)
}

// Transaction runs fn inside a scoped transaction: commit on success, full
// rollback on error and on panic. This is the abort-on-every-exit-path
// guarantee callers should prefer over manual Open/Commit pairs.
func (d *Document) Transaction(name string, fn func() error) error {
	if err := d.OpenTransaction(name); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = d.AbortTransaction()
			panic(r)
		}
	}()
	if err := fn(); err != nil {
		if aerr := d.AbortTransaction(); aerr != nil {
			return fmt.Errorf("rollback after %w: %v", err, aerr)
		}
		return err
	}
	return d.CommitTransaction()
}

// Undo reverses the newest committed transaction and recomputes the
// affected objects, restoring every property to its pre-transaction value,
// including on objects that were only recomputed as side effects.
func (d *Document) Undo(ctx context.Context) ([]Outcome, error) {
	_, deltas, err := d.txns.Undo()
	if err != nil {
		return nil, err
	}
	if err := d.applyDeltas(deltas, false); err != nil {
		return nil, err
	}
	return d.Recompute(ctx)
}

// Redo reapplies the newest undone transaction and recomputes. Given
// identical inputs the pass is deterministic, so redo reproduces the
// original forward outcome.
func (d *Document) Redo(ctx context.Context) ([]Outcome, error) {
	_, deltas, err := d.txns.Redo()
	if err != nil {
		return nil, err
	}
	if err := d.applyDeltas(deltas, true); err != nil {
		return nil, err
	}
	return d.Recompute(ctx)
}

// applyDeltas writes back recorded values: the new side for redo, the old
// side for undo and rollback. Restores bypass the read-only gate (the
// recorded values were legal when captured) and mark the owners touched so
// the following recompute picks them up.
func (d *Document) applyDeltas(deltas []transaction.Delta, newSide bool) error {
	for _, delta := range deltas {
		o, ok := d.objects[delta.ObjectID]
		if !ok {
			return &UnknownObjectError{ID: delta.ObjectID}
		}
		if delta.Kind == transaction.BindingDelta {
			formula := delta.OldFormula
			if newSide {
				formula = delta.NewFormula
			}
			if err := d.restoreBinding(o, delta.Property, formula); err != nil {
				return err
			}
			continue
		}
		v := delta.Old
		if newSide {
			v = delta.New
		}
		if err := o.Properties().Restore(delta.Property, v); err != nil {
			return err
		}
		switch v.Kind {
		case property.Link, property.LinkList:
			d.reindexLinks(o)
		}
	}
	return nil
}

// UndoCount returns the number of undoable transactions.
func (d *Document) UndoCount() int { return d.txns.UndoCount() }

// RedoCount returns the number of redoable transactions.
func (d *Document) RedoCount() int { return d.txns.RedoCount() }
