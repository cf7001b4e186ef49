package pointers

import "strings"

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

func String(v string) *string { return &v }

// NonBlank trims *s and returns nil when nothing is left.
func NonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
