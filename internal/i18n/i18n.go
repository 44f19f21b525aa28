// Package i18n picks the label language and looks up UI strings.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/mcules/student-success/internal/outcome"
)

// CookieName remembers the chosen language.
const CookieName = "lang"

// Supported lists the label languages; the first one is the fallback.
var Supported = []language.Tag{language.English, language.Indonesian}

var matcher = language.NewMatcher(Supported)

// Match resolves the language from an explicit choice, a remembered cookie
// value and an Accept-Language header, in that order.
func Match(query, cookie, acceptLanguage string) language.Tag {
	for _, v := range []string{query, cookie} {
		if v == "" {
			continue
		}
		if t, err := language.Parse(v); err == nil {
			if _, idx, conf := matcher.Match(t); conf >= language.High {
				return Supported[idx]
			}
		}
	}
	if acceptLanguage != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return Supported[idx]
			}
		}
	}
	return Supported[0]
}

// FromRequest applies Match to ?lang=, the lang cookie and Accept-Language.
func FromRequest(r *http.Request) language.Tag {
	var cookie string
	if c, err := r.Cookie(CookieName); err == nil {
		cookie = c.Value
	}
	return Match(r.URL.Query().Get("lang"), cookie, r.Header.Get("Accept-Language"))
}

// Printer looks up strings for one language.
type Printer struct {
	Tag  language.Tag
	code string
}

func NewPrinter(t language.Tag) Printer {
	base, _ := t.Base()
	code := base.String()
	if _, ok := messages["title"][code]; !ok {
		code = "en"
	}
	return Printer{Tag: t, code: code}
}

// Code is the two-letter language code, e.g. "id".
func (p Printer) Code() string { return p.code }

// T returns the string for key, falling back to English and then to the key.
func (p Printer) T(key string) string {
	m, ok := messages[key]
	if !ok {
		return key
	}
	if s, ok := m[p.code]; ok {
		return s
	}
	return m["en"]
}

// Field returns the label of a form field.
func (p Printer) Field(name, fallback string) string {
	if s, ok := fieldLabels[name][p.code]; ok {
		return s
	}
	return fallback
}

// Headline is the result sentence for an outcome.
func (p Printer) Headline(k outcome.Kind) string {
	if p.code == "en" {
		return k.Headline()
	}
	return p.T("headline." + string(k))
}

// Recommendations returns the advice list for an outcome.
func (p Printer) Recommendations(k outcome.Kind) []string {
	recs := outcome.Recommendations(k)
	if p.code == "en" {
		return recs
	}
	out := make([]string, len(recs))
	for i, r := range recs {
		if s, ok := recommendationText[r][p.code]; ok {
			out[i] = s
		} else {
			out[i] = r
		}
	}
	return out
}

// Option translates a fixed option label such as "Yes" or "Female".
func (p Printer) Option(label string) string {
	if s, ok := optionLabels[strings.ToLower(label)][p.code]; ok {
		return s
	}
	return label
}
