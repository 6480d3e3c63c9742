// Package locale resolves user-facing bot strings from embedded TOML catalogs.
package locale

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/m3rciful/lunabot/core/logger"
	"log/slog"
)

//go:embed locales/*.toml
var localesFS embed.FS

// Supported lists the catalogs shipped with the bot.
var Supported = []string{"fa", "en"}

// Message identifiers.
const (
	StartIntro         = "start_intro"
	TopicAsk           = "topic_ask"
	PracticeStart      = "practice_start"
	LevelChoose        = "level_choose"
	LevelReprompt      = "level_reprompt"
	LevelSet           = "level_set"
	TopicAskNew        = "topic_ask_new"
	TopicSet           = "topic_set"
	DictionaryAsk      = "dictionary_ask"
	DictionaryMeaning  = "dictionary_meaning"
	DictionaryFallback = "dictionary_fallback"
	BackDone           = "back_done"
	ChatNonEnglish     = "chat_non_english"
	ChatNonText        = "chat_non_text"
	ReplyFallback      = "reply_fallback"
	CorrectionFallback = "correction_fallback"
	CorrectionBlock    = "correction_block"
	CorrectionPlain    = "correction_block_plain"
	RateLimited        = "rate_limited"
	LabelChangeLevel   = "label_change_level"
	LabelChangeTopic   = "label_change_topic"
	LabelDictionary    = "label_dictionary"
	LabelBack          = "label_back"
	CommandStart       = "command_start"
)

// Catalog renders messages in one display language.
type Catalog struct {
	lang      string
	localizer *i18n.Localizer
}

// New loads every embedded catalog and binds the result to lang, falling back to Persian.
func New(lang string) (*Catalog, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = "fa"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("locale: parse language %q: %w", lang, err)
	}

	bundle := i18n.NewBundle(language.Persian)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	found := false
	for _, l := range Supported {
		filename := fmt.Sprintf("locales/active.%s.toml", l)
		data, err := localesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("locale: read %s: %w", filename, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, filename); err != nil {
			return nil, fmt.Errorf("locale: parse %s: %w", filename, err)
		}
		if l == lang {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("locale: unsupported language %q; allowed: %s", lang, strings.Join(Supported, ", "))
	}

	return &Catalog{lang: lang, localizer: i18n.NewLocalizer(bundle, tag.String(), "fa")}, nil
}

// Lang returns the display language.
func (c *Catalog) Lang() string {
	return c.lang
}

// Text renders id without template data.
func (c *Catalog) Text(id string) string {
	return c.Format(id, nil)
}

// Format renders id with data; unknown ids render as the id itself.
func (c *Catalog) Format(id string, data map[string]any) string {
	msg, err := c.localizer.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		logger.Warn(context.Background(), "locale", "localize.fail",
			slog.String("lang", c.lang),
			slog.String("payload", id),
			slog.String("err", err.Error()),
		)
		return id
	}
	return msg
}
