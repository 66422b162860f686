package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/internal/profile"
	"github.com/hrygo/contextsense/store"
	"github.com/hrygo/contextsense/store/db/postgres"
	"github.com/hrygo/contextsense/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case profile.DriverSQLite:
		driver, err = sqlite.NewDB(profile)
	case profile.DriverPostgres:
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver: %s", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
