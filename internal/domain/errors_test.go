package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "order not found",
			err:  ErrOrderNotFound,
			want: true,
		},
		{
			name: "wrapped customer not found",
			err:  fmt.Errorf("order 7: %w", ErrCustomerNotFound),
			want: true,
		},
		{
			name: "joined order item not found",
			err:  errors.Join(ErrOrderItemNotFound, errors.New("additional context")),
			want: true,
		},
		{
			name: "broken reference in read model",
			err:  fmt.Errorf("order 4: %w: %w: %d", ErrBrokenReference, ErrCustomerNotFound, 999),
			want: false,
		},
		{
			name: "other error",
			err:  ErrUnknownOrderStatus,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNotFound(tt.err)
			if got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
