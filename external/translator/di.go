package translator

import (
	"context"
	"log/slog"

	"github.com/foxseedlab/tsuyaku/internal/config"
	"github.com/foxseedlab/tsuyaku/internal/translator"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (translator.Translator, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.GoogleCloudCredentialsJSON == "" {
			slog.Info("GOOGLE_CLOUD_CREDENTIALS_JSON is not set; translate proxy disabled")
			return disabledTranslator{}, nil
		}
		return NewGoogleTranslator(context.Background(), c.GoogleCloudCredentialsJSON)
	})
	do.Provide(injector, func(i do.Injector) (*translator.Service, error) {
		return translator.NewService(do.MustInvoke[translator.Translator](i)), nil
	})
}
