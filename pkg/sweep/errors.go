package sweep

import (
	"fmt"

	"github.com/unboxed/bops-go/pkg/serrors"
)

var ErrInvalidConfig = serrors.NewError("SWEEP_INVALID_CONFIG", "invalid sweep configuration", "")

func invalidConfig(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, detail)
}
