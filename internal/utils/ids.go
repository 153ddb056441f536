// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"errors"
	"strconv"
)

// ErrInvalidID is returned by ParseID for anything that is not a base-10
// integer fitting in int64.
var ErrInvalidID = errors.New("id must be a decimal integer")

// ParseID converts a path segment to an int64 identifier using
// strconv.ParseInt in base 10. Surrounding whitespace, hex prefixes and
// out-of-range values are rejected.
//
// Example:
//
//	id, err := utils.ParseID("42")  // 42, nil
//	_, err = utils.ParseID("abc")   // ErrInvalidID
func ParseID(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidID
	}
	return n, nil
}
