//go:build wireinject

package godm

import (
	"github.com/google/wire"
	"github.com/vinicius-lino-figueiredo/godm/adapter/connection"
	"github.com/vinicius-lino-figueiredo/godm/adapter/driver/memdriver"
	"github.com/vinicius-lino-figueiredo/godm/adapter/driver/mongodriver"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.uber.org/zap"
)

func newMongoDriver(cfg connection.Config, logger *zap.Logger) domain.Driver {
	wire.Build(mongodriver.Set)
	return nil
}

func newMemoryDriver(cfg connection.Config, logger *zap.Logger) domain.Driver {
	wire.Build(memdriver.Set)
	return nil
}
