package store

import (
	"fmt"

	"CandleWatch/internal/model"
)

// Drivers accepted by New.
const (
	DriverNone   = "none"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// SelectionStore keeps the viewer's last selection across restarts. It holds one
// value, never a history.
type SelectionStore interface {
	// Load returns the saved selection; ok is false when nothing was saved yet.
	Load() (sel model.Selection, ok bool, err error)
	Save(sel model.Selection) error
	Close() error
}

// New opens the store for driver at path.
func New(driver, path string) (SelectionStore, error) {
	switch driver {
	case DriverNone, "":
		return NewNoopStore(), nil
	case DriverFile:
		return NewFileStore(path), nil
	case DriverSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
