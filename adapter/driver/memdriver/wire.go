package memdriver

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

// ProvideDriver builds a [Driver] using the datafile of cfg, if any.
func ProvideDriver(cfg connection.Config, logger *zap.Logger) *Driver {
	return NewDriver(WithDatafile(cfg.Datafile), WithLogger(logger))
}
