// Package bottext holds the user-visible text catalog of the bot. Messages
// are authored as Telegram MarkdownV2 unless their id ends in "_toast";
// template values must be escaped by the caller.
package bottext

import (
	"context"
	"embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translationFS embed.FS

var (
	bundle  *i18n.Bundle
	matcher language.Matcher
)

type localizerContextKey struct{}

// Init loads the embedded catalogs. It must be called before T or TData.
func Init() error {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := translationFS.ReadDir("translations")
	if err != nil {
		return fmt.Errorf("list translations: %w", err)
	}
	for _, f := range files {
		if _, err := b.LoadMessageFileFS(translationFS, "translations/"+f.Name()); err != nil {
			return fmt.Errorf("load %s: %w", f.Name(), err)
		}
	}

	bundle = b
	matcher = language.NewMatcher(b.LanguageTags())
	return nil
}

// MatchLanguage returns the best catalog for a platform language code,
// falling back to English.
func MatchLanguage(code string) language.Tag {
	if matcher == nil || code == "" {
		return language.English
	}
	tag, _ := language.MatchStrings(matcher, code)
	return tag
}

// WithLocale returns a context whose lookups use lang.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	if bundle == nil {
		return ctx
	}
	return context.WithValue(ctx, localizerContextKey{}, i18n.NewLocalizer(bundle, lang.String()))
}

// T returns the message for id, or id itself if the catalog lacks it.
func T(ctx context.Context, id string) string {
	return TData(ctx, id, nil)
}

// TData returns the message for id rendered with data.
func TData(ctx context.Context, id string, data map[string]any) string {
	localizer := getLocalizer(ctx)
	if localizer == nil {
		return id
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}

func getLocalizer(ctx context.Context) *i18n.Localizer {
	if localizer, ok := ctx.Value(localizerContextKey{}).(*i18n.Localizer); ok {
		return localizer
	}
	if bundle == nil {
		return nil
	}
	return i18n.NewLocalizer(bundle, language.English.String())
}
