package ledger

import (
	"github.com/pkg/errors"

	"stockledger/internal/model"
)

type EditMode string

const (
	// EditModeDelta expresses the mutation as a signed magnitude change.
	EditModeDelta EditMode = "delta"
	// EditModeInline overwrites the Item's fields; the equivalent delta is
	// derived from the target quantity.
	EditModeInline EditMode = "inline"
)

// Decision is the outcome of the stock policy for one proposed mutation:
// the quantity to persist and the operation and magnitude to log. A zero
// Magnitude means no Transaction is written.
type Decision struct {
	NewQuantity float64
	Operation   model.Operation
	Magnitude   float64
	// NoOp is set when nothing changed at all, so neither the Item nor the
	// ledger is touched.
	NoOp bool
}

// DecideDelta applies an input/output of the given magnitude to the current
// quantity. An output larger than the current quantity fails with
// ErrNegativeStock and must leave all state untouched.
func DecideDelta(current float64, op model.Operation, magnitude float64) (Decision, error) {
	switch op {
	case model.OperationInput:
		return Decision{
			NewQuantity: current + magnitude,
			Operation:   model.OperationInput,
			Magnitude:   magnitude,
		}, nil
	case model.OperationOutput:
		if magnitude > current {
			return Decision{}, errors.Wrapf(ErrNegativeStock,
				"output of %v exceeds current quantity %v", magnitude, current)
		}
		return Decision{
			NewQuantity: current - magnitude,
			Operation:   model.OperationOutput,
			Magnitude:   magnitude,
		}, nil
	default:
		return Decision{}, errors.Wrapf(ErrValidation, "operation %q cannot be requested", op)
	}
}

// DecideInline derives the delta implied by overwriting the quantity with
// target. When the quantity is unchanged no Transaction is logged, and when
// no other field changed either the whole mutation is a no-op.
func DecideInline(current float64, target float64, otherFieldsChanged bool) Decision {
	diff := target - current
	switch {
	case diff > 0:
		return Decision{NewQuantity: target, Operation: model.OperationInput, Magnitude: diff}
	case diff < 0:
		return Decision{NewQuantity: target, Operation: model.OperationOutput, Magnitude: -diff}
	default:
		return Decision{NewQuantity: target, NoOp: !otherFieldsChanged}
	}
}

// DecideCreate starts a fresh Item from zero; the base of zero needs no
// negativity check since requested magnitudes are positive.
func DecideCreate(op model.Operation, magnitude float64) Decision {
	if op != model.OperationOutput {
		op = model.OperationInput
	}
	return Decision{NewQuantity: magnitude, Operation: op, Magnitude: magnitude}
}
