// Package i18n translates error codes into user-facing messages.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var locales embed.FS

// Translator localizes message ids from the embedded locale files
type Translator struct {
	bundle      *i18n.Bundle
	defaultLang language.Tag
}

// New loads the embedded translations; defaultLang is used when the
// request asks for nothing we support
func New(defaultLang string) (*Translator, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if _, err := bundle.LoadMessageFileFS(locales, file); err != nil {
			return nil, fmt.Errorf("failed to load translations %s: %w", file, err)
		}
	}

	return &Translator{bundle: bundle, defaultLang: tag}, nil
}

// Languages returns the loaded languages
func (t *Translator) Languages() []language.Tag {
	return t.bundle.LanguageTags()
}

// Translate returns the message for id in the best language of
// acceptLanguage, or fallback when id has no translation
func (t *Translator) Translate(acceptLanguage, id, fallback string, data map[string]interface{}) string {
	localizer := i18n.NewLocalizer(t.bundle, acceptLanguage, t.defaultLang.String())

	lc := &i18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		lc.TemplateData = data
	}

	msg, err := localizer.Localize(lc)
	if err != nil {
		return fallback
	}
	return msg
}
