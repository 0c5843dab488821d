package app

import (
	"errors"
	"testing"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		args      []string
		want      string
	}{
		{name: "with arguments", operation: "Import", args: []string{"foo", "categories.csv"}, want: "foo categories.csv"},
		{name: "no arguments", operation: "CreateChannel", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation(tt.operation, tt.args...)

			if op.Operation != tt.operation {
				t.Errorf("Operation = %q, want %q", op.Operation, tt.operation)
			}
			if op.Parameters != tt.want {
				t.Errorf("Parameters = %q, want %q", op.Parameters, tt.want)
			}
			if op.Status != StatusSuccess {
				t.Errorf("Status = %q, want %q", op.Status, StatusSuccess)
			}
			if op.Persisted() {
				t.Error("Persisted() = true for a new operation")
			}
		})
	}
}

func TestOperation_Persisted(t *testing.T) {
	for id, want := range map[int64]bool{0: false, 1: true, 99999: true} {
		op := &Operation{ID: id}
		if got := op.Persisted(); got != want {
			t.Errorf("Persisted() with ID %d = %v, want %v", id, got, want)
		}
	}
}

func TestOperation_Fail(t *testing.T) {
	op := NewOperation("AddCategory")

	if err := op.Fail(nil); err != nil || op.Status != StatusSuccess {
		t.Fatalf("Fail(nil) = %v, status %q", err, op.Status)
	}

	boom := errors.New("boom")
	if err := op.Fail(boom); err != boom {
		t.Errorf("Fail() = %v, want %v", err, boom)
	}
	if op.Status != StatusError {
		t.Errorf("Status = %q, want %q", op.Status, StatusError)
	}
}
