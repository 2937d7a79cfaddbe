package modules

import (
	"github.com/unboxed/bops-go/modules/planning"
	"github.com/unboxed/bops-go/pkg/application"
)

var BuiltInModules = []application.Module{
	planning.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
