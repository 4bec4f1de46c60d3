// Package ptr holds helpers for optional fields in patch-style requests.
package ptr

// To returns a pointer to v.
func To[T any](v T) *T {
	return &v
}

// Deref returns *p, or current when p is nil. Patch fields use it so an
// absent field keeps the stored value.
func Deref[T any](p *T, current T) T {
	if p != nil {
		return *p
	}
	return current
}
