// Package translator backs the stateless translate proxy: one text into a
// primary and up to two further target languages.
package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyText = errors.New("text is required")

type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

type Request struct {
	Text              string `json:"text"`
	Language          string `json:"language"`
	SecondaryLanguage string `json:"secondaryLanguage,omitempty"`
	TertiaryLanguage  string `json:"tertiaryLanguage,omitempty"`
}

type Response struct {
	TranslatedText          string `json:"translatedText"`
	SecondaryTranslatedText string `json:"secondaryTranslatedText,omitempty"`
	TertiaryTranslatedText  string `json:"tertiaryTranslatedText,omitempty"`
}

type Service struct {
	translator Translator
}

func NewService(t Translator) *Service {
	return &Service{translator: t}
}

func (s *Service) Translate(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Response{}, ErrEmptyText
	}
	if strings.TrimSpace(req.Language) == "" {
		return Response{}, errors.New("language is required")
	}

	var resp Response
	var err error
	if resp.TranslatedText, err = s.translator.Translate(ctx, req.Text, req.Language); err != nil {
		return Response{}, fmt.Errorf("translate to %s: %w", req.Language, err)
	}
	if req.SecondaryLanguage != "" {
		if resp.SecondaryTranslatedText, err = s.translator.Translate(ctx, req.Text, req.SecondaryLanguage); err != nil {
			return Response{}, fmt.Errorf("translate to %s: %w", req.SecondaryLanguage, err)
		}
	}
	if req.TertiaryLanguage != "" {
		if resp.TertiaryTranslatedText, err = s.translator.Translate(ctx, req.Text, req.TertiaryLanguage); err != nil {
			return Response{}, fmt.Errorf("translate to %s: %w", req.TertiaryLanguage, err)
		}
	}
	return resp, nil
}
