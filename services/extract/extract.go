// Package extract turns raw source items into canonical torrent records.
package extract

import (
	"fmt"

	"github.com/pkg/errors"
)

// ExtractionError marks a single malformed source item. It is an expected,
// frequent condition for corrupt inputs: the record is logged and skipped,
// the window continues.
type ExtractionError struct {
	Ref string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", e.Ref, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func extractionError(ref string, err error) error {
	return &ExtractionError{Ref: ref, Err: err}
}

// IsExtractionError reports whether err is local to one record.
func IsExtractionError(err error) bool {
	var e *ExtractionError
	return errors.As(err, &e)
}
