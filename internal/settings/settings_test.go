package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/foxseedlab/tsuyaku/internal/repository"
)

type mockSettingsRepository struct {
	stored  *repository.LanguageSettings
	getErr  error
	saveErr error
	saves   []repository.LanguageSettings
}

func (m *mockSettingsRepository) GetSettings(_ context.Context) (*repository.LanguageSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.stored == nil {
		return nil, repository.ErrSettingsNotFound
	}
	return m.stored, nil
}

func (m *mockSettingsRepository) SaveSettings(_ context.Context, s repository.LanguageSettings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves = append(m.saves, s)
	return nil
}

func TestLanguageSettings_TargetLanguagesSkipsBlanks(t *testing.T) {
	s := LanguageSettings{Languages: []string{"en", "", " ms ", ""}, MaxWordsBeforeReset: 30}
	got := s.TargetLanguages()
	if len(got) != 2 || got[0] != "en" || got[1] != "ms" {
		t.Fatalf("unexpected targets: %v", got)
	}
	if s.Primary() != "en" {
		t.Fatalf("unexpected primary: %s", s.Primary())
	}
}

func TestLanguageSettings_Validate(t *testing.T) {
	cases := []struct {
		name    string
		in      LanguageSettings
		wantErr bool
	}{
		{name: "defaults", in: Default()},
		{name: "no targets", in: LanguageSettings{Languages: []string{"", ""}, MaxWordsBeforeReset: 5}, wantErr: true},
		{name: "too many", in: LanguageSettings{Languages: []string{"en", "ms", "ar", "ta", "ja"}, MaxWordsBeforeReset: 5}, wantErr: true},
		{name: "duplicate", in: LanguageSettings{Languages: []string{"en", "en"}, MaxWordsBeforeReset: 5}, wantErr: true},
		{name: "zero threshold", in: LanguageSettings{Languages: []string{"en"}, MaxWordsBeforeReset: 0}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestStore_LoadFallsBackToDefaults(t *testing.T) {
	store := NewStore(&mockSettingsRepository{}, Default())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.Current(); got.MaxWordsBeforeReset != DefaultMaxWordsBeforeReset || len(got.Languages) != 4 {
		t.Fatalf("unexpected settings: %+v", got)
	}
}

func TestStore_LoadUsesPersisted(t *testing.T) {
	repo := &mockSettingsRepository{stored: &repository.LanguageSettings{Languages: []string{"ja"}, MaxWordsBeforeReset: 12}}
	store := NewStore(repo, Default())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := store.Current()
	if len(got.Languages) != 1 || got.Languages[0] != "ja" || got.MaxWordsBeforeReset != 12 {
		t.Fatalf("unexpected settings: %+v", got)
	}
}

func TestStore_LoadPropagatesRepositoryError(t *testing.T) {
	store := NewStore(&mockSettingsRepository{getErr: errors.New("db down")}, Default())
	if err := store.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestStore_SaveNotifiesListeners(t *testing.T) {
	repo := &mockSettingsRepository{}
	store := NewStore(repo, Default())
	var gotPrev, gotNext LanguageSettings
	calls := 0
	store.OnChange(func(_ context.Context, prev, next LanguageSettings) {
		calls++
		gotPrev, gotNext = prev, next
	})

	next := LanguageSettings{Languages: []string{"en", "ja"}, MaxWordsBeforeReset: 10}
	if err := store.Save(context.Background(), next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one listener call, got %d", calls)
	}
	if gotPrev.MaxWordsBeforeReset != DefaultMaxWordsBeforeReset || gotNext.MaxWordsBeforeReset != 10 {
		t.Fatalf("unexpected listener args: prev=%+v next=%+v", gotPrev, gotNext)
	}
	if len(repo.saves) != 1 {
		t.Fatalf("expected one persisted save, got %d", len(repo.saves))
	}
}

func TestStore_SaveRejectsInvalidWithoutPersisting(t *testing.T) {
	repo := &mockSettingsRepository{}
	store := NewStore(repo, Default())
	if err := store.Save(context.Background(), LanguageSettings{MaxWordsBeforeReset: 10}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(repo.saves) != 0 {
		t.Fatalf("expected nothing persisted, got %d", len(repo.saves))
	}
}

func TestStore_CurrentIsACopy(t *testing.T) {
	store := NewStore(&mockSettingsRepository{}, Default())
	snap := store.Current()
	snap.Languages[0] = "xx"
	if store.Current().Languages[0] != "en" {
		t.Fatal("mutating a snapshot changed the store")
	}
}
