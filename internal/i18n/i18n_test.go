package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/mcules/student-success/internal/outcome"
)

func TestMatch_Precedence(t *testing.T) {
	assert.Equal(t, language.Indonesian, Match("id", "en", "en-US"))
	assert.Equal(t, language.English, Match("", "en", "id-ID"))
	assert.Equal(t, language.Indonesian, Match("", "", "fr;q=0.9, id-ID;q=0.8"))
	assert.Equal(t, language.English, Match("", "", "fr-FR"))
	assert.Equal(t, language.English, Match("xx-not-a-tag", "", ""))
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?lang=id", nil)
	assert.Equal(t, language.Indonesian, FromRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "id"})
	assert.Equal(t, language.Indonesian, FromRequest(req))
}

func TestPrinter(t *testing.T) {
	en := NewPrinter(language.English)
	id := NewPrinter(language.Indonesian)

	assert.Equal(t, "Predict", en.T("predict"))
	assert.Equal(t, "Prediksi", id.T("predict"))
	assert.Equal(t, "unknown.key", id.T("unknown.key"))

	assert.Equal(t, "Course", en.Field("Course", "Course"))
	assert.Equal(t, "Program Studi", id.Field("Course", "Course"))

	assert.Equal(t, outcome.Graduate.Headline(), en.Headline(outcome.Graduate))
	assert.Equal(t, "Mahasiswa diprediksi Lulus", id.Headline(outcome.Graduate))
	assert.Equal(t, "Pertimbangkan dukungan akademik tambahan", id.Recommendations(outcome.AtRisk)[0])
	assert.Equal(t, "Ya", id.Option("Yes"))
	assert.Equal(t, "9119", id.Option("9119"))

	assert.Equal(t, "en", NewPrinter(language.French).Code())
}

func TestMessagesHaveBothLanguages(t *testing.T) {
	for key, m := range messages {
		assert.NotEmpty(t, m["en"], key)
		assert.NotEmpty(t, m["id"], key)
	}
}
