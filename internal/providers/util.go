package providers

import "io"

// readAll drains r, bounding error bodies with io.LimitReader before
// they get wrapped into an error.
func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, 1<<20))
}
