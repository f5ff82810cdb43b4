package model

import "testing"

func TestReplay(t *testing.T) {
	tests := []struct {
		name string
		txns []Transaction
		want float64
	}{
		{name: "empty ledger", txns: nil, want: 0},
		{
			name: "inputs and outputs",
			txns: []Transaction{
				{Operation: OperationInput, Quantity: 10, Status: StatusCompleted},
				{Operation: OperationOutput, Quantity: 3, Status: StatusCompleted},
				{Operation: OperationInput, Quantity: 1.5, Status: StatusCompleted},
			},
			want: 8.5,
		},
		{
			name: "dump zeroes regardless of history",
			txns: []Transaction{
				{Operation: OperationInput, Quantity: 10, Status: StatusCompleted},
				{Operation: OperationDump, Quantity: 10, Status: StatusCompleted},
				{Operation: OperationInput, Quantity: 4, Status: StatusCompleted},
			},
			want: 4,
		},
		{
			name: "non-completed rows skipped",
			txns: []Transaction{
				{Operation: OperationInput, Quantity: 10, Status: StatusCompleted},
				{Operation: OperationOutput, Quantity: 5, Status: StatusFailed},
				{Operation: OperationInput, Quantity: 2, Status: StatusInProgress},
			},
			want: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Replay(tt.txns); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestOperationValid(t *testing.T) {
	for _, op := range []Operation{OperationInput, OperationOutput, OperationDump} {
		if !op.Valid() {
			t.Errorf("expected %s to be valid", op)
		}
	}
	if Operation("transfer").Valid() {
		t.Error("expected transfer to be invalid")
	}
}
