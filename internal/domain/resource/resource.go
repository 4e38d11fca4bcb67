// Package resource phrases the placeholder responses served for each
// resource kind. Every function is pure: the output depends only on its
// arguments.
package resource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidID reports a path identifier that does not parse as an int64.
var ErrInvalidID = errors.New("invalid id")

// Kind names a resource in singular and plural form.
type Kind struct {
	Singular string
	Plural   string
}

// Known kinds.
var (
	Product = Kind{Singular: "product", Plural: "products"}
	User    = Kind{Singular: "user", Plural: "users"}
)

// List describes fetching the whole collection.
func List(k Kind) string {
	return "This would return all " + k.Plural
}

// Get describes fetching one item.
func Get(k Kind, id int64) string {
	return withID("This would return "+k.Singular, id)
}

// Create describes creating an item.
func Create(k Kind) string {
	return "This would create a new " + k.Singular
}

// Update describes replacing an item.
func Update(k Kind, id int64) string {
	return withID("This would update "+k.Singular, id)
}

// PartialUpdate describes patching an item.
func PartialUpdate(k Kind, id int64) string {
	return withID("This would partially update "+k.Singular, id)
}

// Delete describes removing an item.
func Delete(k Kind, id int64) string {
	return withID("This would delete "+k.Singular, id)
}

// Search describes a keyword search over the collection. The keyword is
// echoed verbatim, including an empty one.
func Search(k Kind, keyword string) string {
	return "This would search " + k.Plural + " with keyword: " + keyword
}

func withID(prefix string, id int64) string {
	return prefix + " with ID: " + strconv.FormatInt(id, 10)
}

// ParseID parses a path identifier the way the Java service bound its Long
// path variables: whitespace anywhere is dropped, a leading "+" or "-" is
// accepted, and "0x", "0X" or "#" after an optional "-" selects hex.
// Fractions and values outside int64 are rejected.
func ParseID(raw string) (int64, error) {
	s := strings.Map(func(r rune) rune {
		if isJavaWhitespace(r) {
			return -1
		}
		return r
	}, raw)

	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")
	for _, prefix := range []string{"0x", "0X", "#"} {
		digits, ok := strings.CutPrefix(body, prefix)
		if !ok {
			continue
		}
		// A sign is only allowed before the prefix.
		if digits == "" || digits[0] == '+' || digits[0] == '-' {
			return 0, invalidID(raw)
		}
		if neg {
			digits = "-" + digits
		}
		id, err := strconv.ParseInt(digits, 16, 64)
		if err != nil {
			return 0, invalidID(raw)
		}
		return id, nil
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, invalidID(raw)
	}
	return id, nil
}

func invalidID(raw string) error {
	return fmt.Errorf("%w: %q", ErrInvalidID, raw)
}

// isJavaWhitespace matches Character.isWhitespace: Unicode spaces except the
// no-break ones, plus the ASCII separators 0x1C-0x1F.
func isJavaWhitespace(r rune) bool {
	switch r {
	case '\u00a0', '\u2007', '\u202f':
		return false
	case '\x1c', '\x1d', '\x1e', '\x1f':
		return true
	}
	return unicode.IsSpace(r)
}
