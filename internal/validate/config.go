package validate

import (
	"strings"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// ValidateConfig checks a loaded configuration against its struct tags
func ValidateConfig(cfg *model.Config) error {
	if err := newStructValidator().Struct(cfg); err != nil {
		return errors.Mark(
			errors.Newf("config: %s", strings.Join(fieldProblems(err), "; ")),
			errors.ErrConfig,
		)
	}
	if len(cfg.EnabledTypes()) == 0 {
		return errors.Mark(errors.New("config: no question types enabled"), errors.ErrConfig)
	}
	return nil
}
