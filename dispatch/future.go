package dispatch

import (
	"errors"

	"github.com/samber/mo"
)

var errNilFuture = errors.New("plugin returned no future")

// await blocks until f settles.
func await[T any](f *mo.Future[T]) (T, error) {
	if f == nil {
		var zero T
		return zero, errNilFuture
	}
	return f.Collect()
}
