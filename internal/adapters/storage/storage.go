package storage

import (
	"fmt"

	"github.com/alejandrodnm/p2pbot/internal/ports"
)

// Drivers soportados por Open.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverBunt   = "buntdb"
)

// Open crea el ledger para el driver configurado.
func Open(driver, path string) (ports.Ledger, error) {
	switch driver {
	case "", DriverJSON:
		return NewJSONFile(path), nil
	case DriverSQLite:
		db, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case DriverBunt:
		db, err := NewBunt(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("storage.Open: unknown driver %q", driver)
	}
}
