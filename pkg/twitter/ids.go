package twitter

import "strings"

// DecrementID returns the decimal string id minus one, for use as the next
// max_id so the boundary status is not fetched twice. IDs exceed what some
// JSON consumers hold exactly, so the arithmetic is done on the digits.
// It returns "" for "", "0" and anything that is not a decimal number.
func DecrementID(id string) string {
	if id == "" {
		return ""
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return ""
		}
	}

	digits := []byte(id)
	i := len(digits) - 1
	for ; i >= 0 && digits[i] == '0'; i-- {
		digits[i] = '9'
	}
	if i < 0 {
		// all zeros
		return ""
	}
	digits[i]--

	out := strings.TrimLeft(string(digits), "0")
	return out
}
