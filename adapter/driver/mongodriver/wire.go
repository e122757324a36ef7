package mongodriver

import (
	"github.com/google/wire"
	"github.com/vinicius-lino-figueiredo/godm/adapter/connection"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.uber.org/zap"
)

// Set is a Wire provider set that provides a [domain.Driver] for a
// [connection.Config] and a logger.
var Set = wire.NewSet(
	ProvideDriver,
	wire.Bind(new(domain.Driver), new(*Driver)),
)

// ProvideDriver builds a [Driver] from the server and read preference of cfg.
func ProvideDriver(cfg connection.Config, logger *zap.Logger) *Driver {
	return NewDriver(
		WithURI(cfg.Server),
		WithReadPreference(cfg.ReadPreference, cfg.ReadPreferenceTags),
		WithLogger(logger),
	)
}
