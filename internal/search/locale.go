package search

import (
	"strings"

	"golang.org/x/text/language"
)

// LanguageCode returns the ISO 639-1 base language of a hint such as
// "en", "en-US" or "pt_BR". Unparseable hints yield "".
func LanguageCode(hint string) string {
	hint = strings.TrimSpace(strings.ReplaceAll(hint, "_", "-"))
	if hint == "" {
		return ""
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

// RegionCode returns the upper-case ISO 3166-1 alpha-2 region for region,
// falling back to the region carried by the language hint ("en-GB" -> "GB").
// It never guesses a region from a bare language.
func RegionCode(region, lang string) string {
	if r := strings.TrimSpace(region); r != "" {
		if rg, err := language.ParseRegion(r); err == nil && rg.IsCountry() {
			return rg.String()
		}
		return ""
	}
	lang = strings.TrimSpace(strings.ReplaceAll(lang, "_", "-"))
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return ""
	}
	rg, conf := tag.Region()
	if conf != language.Exact || !rg.IsCountry() {
		return ""
	}
	return rg.String()
}

// Locale joins language and region as "en-US", returning the language alone
// when no region is known.
func Locale(lang, region string) string {
	l := LanguageCode(lang)
	if l == "" {
		return ""
	}
	if r := RegionCode(region, lang); r != "" {
		return l + "-" + r
	}
	return l
}
