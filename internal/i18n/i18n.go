package i18n

import (
	"embed"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// catalog file per supported language, in matcher order
var supported = []struct {
	tag  language.Tag
	file string
}{
	{language.English, "locales/en.yaml"},
	{language.SimplifiedChinese, "locales/zh-CN.yaml"},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(supported))
	for i, s := range supported {
		tags[i] = s.tag
	}
	return language.NewMatcher(tags)
}()

const timeLayoutKey = "time_layout"

// Translator looks up reply strings for one language. Keys are the English
// text, so a missing entry renders as English.
type Translator struct {
	tag      language.Tag
	messages map[string]string
	loc      *time.Location
}

// New returns the translator that best matches lang. lang may be a BCP 47
// tag ("zh-CN") or a POSIX locale ("zh_CN.UTF-8"); anything unrecognised
// selects English.
func New(lang string) (*Translator, error) {
	idx := Match(lang)

	data, err := localeFS.ReadFile(supported[idx].file)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", supported[idx].file, err)
	}
	messages := map[string]string{}
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", supported[idx].file, err)
	}

	return &Translator{tag: supported[idx].tag, messages: messages, loc: time.Local}, nil
}

// Match returns the index of the supported language closest to lang
func Match(lang string) int {
	tag, err := language.Parse(normalize(lang))
	if err != nil {
		return 0
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return 0
	}
	return idx
}

// normalize turns a POSIX locale into a BCP 47 tag
func normalize(lang string) string {
	lang = strings.TrimSpace(lang)
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	return strings.ReplaceAll(lang, "_", "-")
}

// WithLocation returns a copy that renders times in loc
func (t *Translator) WithLocation(loc *time.Location) *Translator {
	if loc == nil {
		loc = time.Local
	}
	c := *t
	c.loc = loc
	return &c
}

// T translates key, falling back to the key itself
func (t *Translator) T(key string) string {
	if msg, ok := t.messages[key]; ok && msg != "" {
		return msg
	}
	return key
}

// Lang is the selected language tag
func (t *Translator) Lang() string {
	return t.tag.String()
}

// FormatTime renders ts in the translator's time zone and layout
func (t *Translator) FormatTime(ts time.Time) string {
	return ts.In(t.loc).Format(t.T(timeLayoutKey))
}
