package ledger

import (
	"testing"

	"github.com/pkg/errors"

	"stockledger/internal/model"
)

func TestDecideDelta(t *testing.T) {
	tests := []struct {
		name      string
		current   float64
		op        model.Operation
		magnitude float64
		wantQty   float64
		wantErr   error
	}{
		{name: "input adds", current: 5, op: model.OperationInput, magnitude: 3, wantQty: 8},
		{name: "output subtracts", current: 5, op: model.OperationOutput, magnitude: 2, wantQty: 3},
		{name: "output to zero", current: 5, op: model.OperationOutput, magnitude: 5, wantQty: 0},
		{name: "output below zero rejected", current: 10, op: model.OperationOutput, magnitude: 15, wantErr: ErrNegativeStock},
		{name: "output from zero rejected", current: 0, op: model.OperationOutput, magnitude: 1, wantErr: ErrNegativeStock},
		{name: "dump not requestable", current: 5, op: model.OperationDump, magnitude: 1, wantErr: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DecideDelta(tt.current, tt.op, tt.magnitude)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got: %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.NewQuantity != tt.wantQty {
				t.Errorf("expected new quantity %v, got %v", tt.wantQty, d.NewQuantity)
			}
			if d.Operation != tt.op {
				t.Errorf("expected operation %s, got %s", tt.op, d.Operation)
			}
			if d.Magnitude != tt.magnitude {
				t.Errorf("expected magnitude %v, got %v", tt.magnitude, d.Magnitude)
			}
		})
	}
}

func TestDecideInline(t *testing.T) {
	t.Run("increase derives input", func(t *testing.T) {
		d := DecideInline(5, 8, false)
		if d.Operation != model.OperationInput || d.Magnitude != 3 || d.NewQuantity != 8 {
			t.Errorf("unexpected decision: %+v", d)
		}
	})
	t.Run("decrease derives output", func(t *testing.T) {
		d := DecideInline(8, 3, false)
		if d.Operation != model.OperationOutput || d.Magnitude != 5 || d.NewQuantity != 3 {
			t.Errorf("unexpected decision: %+v", d)
		}
	})
	t.Run("unchanged quantity logs nothing", func(t *testing.T) {
		d := DecideInline(5, 5, true)
		if d.Magnitude != 0 || d.NoOp {
			t.Errorf("expected item-only write, got: %+v", d)
		}
	})
	t.Run("nothing changed is a no-op", func(t *testing.T) {
		d := DecideInline(5, 5, false)
		if !d.NoOp {
			t.Errorf("expected no-op, got: %+v", d)
		}
	})
}

func TestDecideCreate(t *testing.T) {
	d := DecideCreate(model.OperationInput, 10)
	if d.NewQuantity != 10 || d.Operation != model.OperationInput || d.Magnitude != 10 {
		t.Errorf("unexpected decision: %+v", d)
	}
}
