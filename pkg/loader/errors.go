// pkg/loader/errors.go
package loader

import "fmt"

// DataSourceError reports an input that could not be loaded at all: a missing
// or unreadable path, a corrupt container, or an unusable metadata store.
// Row-level malformation is never a DataSourceError; malformed fields degrade
// to null values instead.
type DataSourceError struct {
	Source string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %q unusable: %v", e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}
