package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr error
	}{
		{"minimum", 1, nil},
		{"maximum", 5, nil},
		{"middle", 3, nil},
		{"zero", 0, ErrInvalidValue},
		{"negative", -1, ErrInvalidValue},
		{"too high", 6, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Rating{ProductID: "p1", BuyerID: "u1", Value: tt.value}
			err := r.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
