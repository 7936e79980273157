package txn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	standalone := mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("connection reset by peer"), false},

		// Server codes.
		{"standalone mongod", standalone, true},
		{"legacy illegal operation", mongo.CommandError{Code: 51}, true},
		{"operation not allowed in transaction", mongo.CommandError{Code: 263}, true},
		{"duplicate key", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}, false},
		{"document failed validation", mongo.CommandError{Code: 121, Message: "Document failed validation"}, false},

		// Wrapped the way the beneficiary cascade and stock writes wrap them.
		{"cascade step", fmt.Errorf("delete distributions: %w", standalone), true},
		{"nested wrap", fmt.Errorf("beneficiary delete: %w", fmt.Errorf("delete attendance: %w", mongo.CommandError{Code: 263})), true},
		{"wrapped validation failure", fmt.Errorf("insert distribution: %w", mongo.CommandError{Code: 121, Message: "Document failed validation"}), false},
		{"wrapped no documents", fmt.Errorf("load stock item: %w", mongo.ErrNoDocuments), false},

		// Message matching for servers that answer without a code.
		{"replica set wording", errors.New("transaction failed because this is not a replica set member"), true},
		{"session wording", errors.New("session operations are not supported on this server"), true},
		{"upper case", errors.New("TRANSACTION FAILED on REPLICA SET"), true},
		{"single keyword", errors.New("transaction aborted: write conflict"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestInTransaction_PlainContext(t *testing.T) {
	if InTransaction(context.Background()) {
		t.Error("InTransaction(background) = true")
	}
}
