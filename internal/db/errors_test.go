package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/surrealdb/surrealdb.go"
)

func TestWrapQueryError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"already exists", &surrealdb.QueryError{Message: "Database record `site:abc` already exists"}, ErrAlreadyExists},
		{"transaction conflict", &surrealdb.QueryError{Message: "Transaction conflict, please retry"}, ErrTransactionConflict},
		{"wrapped query error", fmt.Errorf("query: %w", &surrealdb.QueryError{Message: "record already exists"}), ErrAlreadyExists},
		{"unknown query error", &surrealdb.QueryError{Message: "syntax error near SELECT"}, nil},
		{"non-query error", plain, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapQueryError(tt.in)
			if tt.in == nil {
				if got != nil {
					t.Fatalf("wrapQueryError(nil) = %v", got)
				}
				return
			}
			if tt.want != nil {
				if !errors.Is(got, tt.want) {
					t.Errorf("wrapQueryError(%v) = %v, want %v sentinel", tt.in, got, tt.want)
				}
				return
			}
			if !errors.Is(got, ErrAlreadyExists) && !errors.Is(got, ErrTransactionConflict) {
				if got.Error() != tt.in.Error() {
					t.Errorf("wrapQueryError(%v) = %v, want passthrough", tt.in, got)
				}
				return
			}
			t.Errorf("wrapQueryError(%v) = %v, want no sentinel", tt.in, got)
		})
	}
}
