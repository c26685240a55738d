package twitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecrementID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1000", "999"},
		{"1001", "1000"},
		{"10", "9"},
		{"1", ""},
		{"0", ""},
		{"", ""},
		{"007", "6"},
		{"1234567890123456789", "1234567890123456788"},
		{"18446744073709551616", "18446744073709551615"},
		{"12a", ""},
		{"-5", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecrementID(tt.in), "DecrementID(%q)", tt.in)
	}
}
