package settings

import (
	"context"

	"github.com/foxseedlab/tsuyaku/internal/config"
	"github.com/foxseedlab/tsuyaku/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		store := NewStore(repo, LanguageSettings{
			Languages:           cfg.DefaultLanguages,
			MaxWordsBeforeReset: cfg.MaxWordsBeforeReset,
		})
		if err := store.Load(context.Background()); err != nil {
			return nil, err
		}
		return store, nil
	})
}
