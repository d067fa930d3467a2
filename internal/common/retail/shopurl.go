// Package retail builds outbound shopping links for stylist recommendations.
package retail

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"muse-workers/internal/models"
)

const DefaultBaseURL = "https://www.myntra.com/"

type LinkBuilder struct {
	baseURL string
}

func NewLinkBuilder(baseURL string) *LinkBuilder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LinkBuilder{baseURL: baseURL}
}

// ShopURL turns a free-text query into a search-page URL, qualifying it with
// the shopper's gender unless the query already names one.
func (b *LinkBuilder) ShopURL(query string, gender models.Gender) string {
	if strings.TrimSpace(query) == "" {
		return b.baseURL
	}
	q := fold(query)
	switch gender {
	case models.GenderMen:
		if !hasWord(q, "men", "mens", "man") {
			q += " men"
		}
	case models.GenderWomen:
		if !hasWord(q, "women", "womens", "woman") {
			q += " women"
		}
	}
	return b.baseURL + slug(q)
}

// ShopURL uses the default storefront.
func ShopURL(query string, gender models.Gender) string {
	return NewLinkBuilder("").ShopURL(query, gender)
}

var lower = cases.Lower(language.Und)

// fold strips accents and lowercases.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return lower.String(out)
}

func hasWord(s string, words ...string) bool {
	for _, field := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		for _, w := range words {
			if field == w {
				return true
			}
		}
	}
	return false
}

func slug(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), "-")
}
