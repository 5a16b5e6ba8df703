package translator

import (
	"context"
	"errors"
	"fmt"
	"html"

	"cloud.google.com/go/auth/credentials"
	"google.golang.org/api/option"
	translate "google.golang.org/api/translate/v2"
)

var ErrTranslatorDisabled = errors.New("translation is not configured")

const translateScope = "https://www.googleapis.com/auth/cloud-translation"

type GoogleTranslator struct {
	svc *translate.Service
}

// NewGoogleTranslator builds a Cloud Translation v2 client. Credentials come
// from credentialsJSON when opts carries no auth option of its own.
func NewGoogleTranslator(ctx context.Context, credentialsJSON string, opts ...option.ClientOption) (*GoogleTranslator, error) {
	if credentialsJSON != "" {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			CredentialsJSON: []byte(credentialsJSON),
			Scopes:          []string{translateScope},
		})
		if err != nil {
			return nil, fmt.Errorf("detect credentials: %w", err)
		}
		opts = append(opts, option.WithAuthCredentials(creds))
	}
	svc, err := translate.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate service: %w", err)
	}
	return &GoogleTranslator{svc: svc}, nil
}

func (t *GoogleTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	resp, err := t.svc.Translations.List([]string{text}, targetLanguage).Format("text").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(resp.Translations) == 0 {
		return "", errors.New("translate response has no translations")
	}
	return html.UnescapeString(resp.Translations[0].TranslatedText), nil
}

type disabledTranslator struct{}

func (disabledTranslator) Translate(context.Context, string, string) (string, error) {
	return "", ErrTranslatorDisabled
}
