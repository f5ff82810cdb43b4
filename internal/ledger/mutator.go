package ledger

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"stockledger/internal/database"
	"stockledger/internal/model"
)

// maxMutateAttempts bounds the transparent retry on detected write
// conflicts before ErrConflict is surfaced.
const maxMutateAttempts = 3

// Store is the persistence surface the Ledger needs. database.Database is
// the production implementation; every write pairing an Item with a
// Transaction must apply atomically and return
// database.ErrNoDocumentsModified when the revision it was conditioned on
// has moved.
type Store interface {
	ItemFind(ctx context.Context, ownerID primitive.ObjectID, name string) (model.Item, error)
	ItemCreateWithTransaction(ctx context.Context, i model.Item, t model.Transaction) (model.Item, model.Transaction, error)
	ItemUpdateWithTransaction(ctx context.Context, i model.Item, t model.Transaction) (model.Item, model.Transaction, error)
	ItemUpdate(ctx context.Context, i model.Item) (model.Item, error)
	ItemDeleteWithTransaction(ctx context.Context, i model.Item, t model.Transaction) (model.Transaction, error)
	ItemsFindPage(ctx context.Context, ownerID primitive.ObjectID, namePrefix string, cursor string, pageSize int) ([]model.Item, string, bool, error)
	ItemsFindAll(ctx context.Context, ownerID primitive.ObjectID) ([]model.Item, error)
	TransactionsFindPage(ctx context.Context, ownerID primitive.ObjectID, namePrefix string, cursor string, pageSize int) ([]model.Transaction, string, bool, error)
}

// Feed receives the owner's full Item set after every committed mutation.
type Feed interface {
	Publish(ownerID string, items []model.Item)
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

// Ledger orchestrates the read-modify-write-append sequence that keeps the
// mutable Item quantities consistent with the append-only Transaction log.
type Ledger struct {
	Store  Store
	Feed   Feed
	Logger logger
}

// MutateRequest is one owner-scoped mutation: a creation, a delta
// operation, or an inline field overwrite, selected by EditMode.
type MutateRequest struct {
	Name      string
	Operation model.Operation
	Quantity  float64
	Price     float64
	EditMode  EditMode
}

func (r MutateRequest) validate() error {
	if r.Name == "" {
		return errors.Wrap(ErrValidation, "name is required")
	}
	if r.Operation != model.OperationInput && r.Operation != model.OperationOutput {
		return errors.Wrapf(ErrValidation, "operation must be input or output, got: %q", r.Operation)
	}
	if r.Quantity <= 0 {
		return errors.Wrapf(ErrValidation, "quantity must be positive, got: %v", r.Quantity)
	}
	if r.Price < 0 {
		return errors.Wrapf(ErrValidation, "price must not be negative, got: %v", r.Price)
	}
	if r.EditMode != EditModeDelta && r.EditMode != EditModeInline {
		return errors.Wrapf(ErrValidation, "edit_mode must be delta or inline, got: %q", r.EditMode)
	}
	return nil
}

// Mutate looks up the owner's Item by name and applies the request: absent
// items are created, present ones mutated in delta or inline mode. The Item
// write and the Transaction append commit as one atomic unit; conflicts
// with concurrent writers are retried transparently a bounded number of
// times. The returned Transaction is nil when the mutation was a no-op.
func (l *Ledger) Mutate(ctx context.Context, ownerID primitive.ObjectID, req MutateRequest) (model.Item, *model.Transaction, error) {
	if req.EditMode == "" {
		req.EditMode = EditModeDelta
	}
	if err := req.validate(); err != nil {
		return model.Item{}, nil, err
	}

	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		i, err := l.Store.ItemFind(ctx, ownerID, req.Name)
		if err != nil {
			if !errors.Is(err, mongo.ErrNoDocuments) {
				return model.Item{}, nil, errors.Wrapf(err, "error finding Item with name: %s", req.Name)
			}
			item, txn, err := l.create(ctx, ownerID, req)
			if err != nil {
				if isWriteConflict(err) {
					// Lost a concurrent create for the same name; the
					// next attempt finds it and mutates instead.
					l.Logger.Debugf("Mutate: create conflict on attempt %d for name: %s, OwnerID: %s",
						attempt, req.Name, ownerID.Hex())
					continue
				}
				return model.Item{}, nil, err
			}
			l.publish(ctx, ownerID)
			return item, &txn, nil
		}

		item, txn, err := l.mutateExisting(ctx, i, req)
		if err != nil {
			if isWriteConflict(err) {
				l.Logger.Debugf("Mutate: write conflict on attempt %d for name: %s, OwnerID: %s",
					attempt, req.Name, ownerID.Hex())
				continue
			}
			return model.Item{}, nil, err
		}
		if item.Revision != i.Revision {
			// Something was written; no-ops skip the feed as well.
			l.publish(ctx, ownerID)
		}
		return item, txn, nil
	}
	return model.Item{}, nil, errors.Wrapf(ErrConflict,
		"gave up after %d attempts mutating Item with name: %s for OwnerID: %s",
		maxMutateAttempts, req.Name, ownerID.Hex())
}

func (l *Ledger) create(ctx context.Context, ownerID primitive.ObjectID, req MutateRequest) (model.Item, model.Transaction, error) {
	d := DecideCreate(req.Operation, req.Quantity)
	i := model.Item{
		OwnerID:          ownerID,
		Name:             req.Name,
		Quantity:         d.NewQuantity,
		Price:            req.Price,
		LastOperation:    d.Operation,
		LastOperationQty: d.Magnitude,
	}
	t := model.Transaction{
		OwnerID:   ownerID,
		Name:      req.Name,
		Operation: d.Operation,
		Quantity:  d.Magnitude,
		Price:     req.Price,
		Status:    model.StatusCompleted,
	}
	i, t, err := l.Store.ItemCreateWithTransaction(ctx, i, t)
	if err != nil {
		return i, t, errors.Wrapf(err, "error creating Item with name: %s", req.Name)
	}
	l.Logger.Infof("Mutate: Created Item with name: %s, quantity: %v for OwnerID: %s", i.Name, i.Quantity, i.OwnerID.Hex())
	return i, t, nil
}

func (l *Ledger) mutateExisting(ctx context.Context, i model.Item, req MutateRequest) (model.Item, *model.Transaction, error) {
	var d Decision
	if req.EditMode == EditModeInline {
		d = DecideInline(i.Quantity, req.Quantity, req.Price != i.Price)
	} else {
		var err error
		d, err = DecideDelta(i.Quantity, req.Operation, req.Quantity)
		if err != nil {
			return model.Item{}, nil, err
		}
	}
	if d.NoOp {
		l.Logger.Debugf("Mutate: No-op for Item with name: %s, OwnerID: %s", i.Name, i.OwnerID.Hex())
		return i, nil, nil
	}

	updated := i
	updated.Quantity = d.NewQuantity
	updated.Price = req.Price

	if d.Magnitude == 0 {
		// Inline edit that left the quantity alone: the Item changes but
		// nothing is logged, since the ledger records quantity deltas only.
		updated, err := l.Store.ItemUpdate(ctx, updated)
		if err != nil {
			return model.Item{}, nil, errors.Wrapf(err, "error updating Item with name: %s without ledger entry", i.Name)
		}
		return updated, nil, nil
	}

	updated.LastOperation = d.Operation
	updated.LastOperationQty = d.Magnitude
	t := model.Transaction{
		OwnerID:   i.OwnerID,
		Name:      i.Name,
		Operation: d.Operation,
		Quantity:  d.Magnitude,
		Price:     req.Price,
		Status:    model.StatusCompleted,
	}
	updated, t, err := l.Store.ItemUpdateWithTransaction(ctx, updated, t)
	if err != nil {
		return model.Item{}, nil, errors.Wrapf(err, "error updating Item with name: %s", i.Name)
	}
	l.Logger.Infof("Mutate: %s of %v on Item with name: %s, new quantity: %v, OwnerID: %s",
		d.Operation, d.Magnitude, i.Name, updated.Quantity, i.OwnerID.Hex())
	return updated, &t, nil
}

// Delete removes the owner's Item and appends the dump Transaction that
// zeroes it, carrying the final quantity at zero price so the audit trail
// replays to the same state.
func (l *Ledger) Delete(ctx context.Context, ownerID primitive.ObjectID, name string) (model.Transaction, error) {
	if name == "" {
		return model.Transaction{}, errors.Wrap(ErrValidation, "name is required")
	}

	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		i, err := l.Store.ItemFind(ctx, ownerID, name)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return model.Transaction{}, errors.Wrapf(ErrNotFound, "no Item with name: %s", name)
			}
			return model.Transaction{}, errors.Wrapf(err, "error finding Item with name: %s", name)
		}
		t := model.Transaction{
			OwnerID:   ownerID,
			Name:      i.Name,
			Operation: model.OperationDump,
			Quantity:  i.Quantity,
			Price:     0,
			Status:    model.StatusCompleted,
		}
		t, err = l.Store.ItemDeleteWithTransaction(ctx, i, t)
		if err != nil {
			if isWriteConflict(err) {
				l.Logger.Debugf("Delete: write conflict on attempt %d for name: %s, OwnerID: %s",
					attempt, name, ownerID.Hex())
				continue
			}
			return model.Transaction{}, errors.Wrapf(err, "error deleting Item with name: %s", name)
		}
		l.Logger.Infof("Delete: Dumped Item with name: %s, final quantity: %v, OwnerID: %s", name, t.Quantity, ownerID.Hex())
		l.publish(ctx, ownerID)
		return t, nil
	}
	return model.Transaction{}, errors.Wrapf(ErrConflict,
		"gave up after %d attempts deleting Item with name: %s for OwnerID: %s",
		maxMutateAttempts, name, ownerID.Hex())
}

// publish pushes the owner's current Item set to live subscribers before
// the mutation returns to its caller.
func (l *Ledger) publish(ctx context.Context, ownerID primitive.ObjectID) {
	if l.Feed == nil {
		return
	}
	items, err := l.Store.ItemsFindAll(ctx, ownerID)
	if err != nil {
		l.Logger.Errorf("publish: Error getting Items for feed for OwnerID: %s, err: %v", ownerID.Hex(), err)
		return
	}
	l.Feed.Publish(ownerID.Hex(), items)
}

func isWriteConflict(err error) bool {
	return errors.Is(err, database.ErrNoDocumentsModified) || mongo.IsDuplicateKeyError(err)
}
