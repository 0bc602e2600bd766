package fill

import (
	"go.uber.org/zap"

	"github.com/jonathan/apply-pilot/internal/pipeline"
	"github.com/jonathan/apply-pilot/internal/platform"
)

// RegisterAll installs a handler for every platform this package supports.
func RegisterAll(reg *pipeline.Registry, cfg Config, log *zap.SugaredLogger) {
	reg.Register(platform.Lever, NewLever(cfg, log))
	reg.Register(platform.Greenhouse, NewGreenhouse(cfg, log))
	reg.Register(platform.Ashby, NewAshby(cfg, log))
	reg.Register(platform.Workday, NewWorkday(cfg, log))
}
