package utils

import (
	"fmt"
	"strings"
)

// ValidateRoutingNumber checks that a routing number is exactly 9 digits and
// passes the ABA checksum (3-7-1 weighting over the digits).
func ValidateRoutingNumber(routing string) error {
	if len(routing) != 9 {
		return fmt.Errorf("routing number must be 9 digits, got %d", len(routing))
	}
	if !isDigits(routing) {
		return fmt.Errorf("routing number must contain only digits")
	}

	sum := 0
	weights := []int{3, 7, 1, 3, 7, 1, 3, 7, 1}
	for i, w := range weights {
		sum += int(routing[i]-'0') * w
	}
	if sum%10 != 0 {
		return fmt.Errorf("routing number failed checksum")
	}
	return nil
}

// ValidateAccountNumber checks that an account number is 4 to 17 digits.
func ValidateAccountNumber(account string) error {
	if len(account) < 4 || len(account) > 17 {
		return fmt.Errorf("account number must be 4 to 17 digits, got %d", len(account))
	}
	if !isDigits(account) {
		return fmt.Errorf("account number must contain only digits")
	}
	return nil
}

// MaskAccountNumber hides all but the last four digits of an account number
// for notifications and logs.
func MaskAccountNumber(account string) string {
	if len(account) <= 4 {
		return account
	}
	return strings.Repeat("*", len(account)-4) + account[len(account)-4:]
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
