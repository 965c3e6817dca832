package chanx

import "github.com/baxromumarov/lockchan"

// Drain reads and discards values from c until it is closed and empty.
// Use it to unblock producers during shutdown.
func Drain[T any](c *lockchan.Chan[T]) {
	for range c.All() {
	}
}

// Collect receives every remaining value from c until it is closed.
func Collect[T any](c *lockchan.Chan[T]) []T {
	var out []T
	for v := range c.All() {
		out = append(out, v)
	}
	return out
}
