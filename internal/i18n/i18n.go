// Package i18n provides the language-dependent pieces of browsing: name
// collation, pluralized count labels and the localized labels used by the
// scope filters and the duplicate action.
package i18n

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	keyItems = "%d items"
	keyCopy  = "%s (copy)"
	keyAll   = "All"
)

// Supported lists the languages with translations.
var Supported = []language.Tag{language.English, language.German, language.Slovenian}

// Localizer formats labels and compares names for one language. It is safe
// for concurrent use.
type Localizer struct {
	tag language.Tag
	cat catalog.Catalog
}

// New returns a localizer for the best supported match of lang (a BCP 47
// tag such as "en", "de-AT" or "sl"). Unknown languages fall back to English.
func New(lang string) *Localizer {
	cat := buildCatalog()

	tag := language.English
	if parsed, err := language.Parse(lang); err == nil {
		_, idx, conf := language.NewMatcher(Supported).Match(parsed)
		if conf != language.No {
			tag = Supported[idx]
		}
	}

	return &Localizer{tag: tag, cat: cat}
}

// Language returns the matched language tag.
func (l *Localizer) Language() language.Tag {
	return l.tag
}

func (l *Localizer) printer() *message.Printer {
	return message.NewPrinter(l.tag, message.Catalog(l.cat))
}

// ItemCount returns a pluralized "n items" label.
func (l *Localizer) ItemCount(n int) string {
	return l.printer().Sprintf(keyItems, n)
}

// CopyName returns name with the localized "(copy)" suffix appended.
func (l *Localizer) CopyName(name string) string {
	return l.printer().Sprintf(keyCopy, name)
}

// All returns the localized label for the unconstrained scope.
func (l *Localizer) All() string {
	return l.printer().Sprintf(keyAll)
}

// Collator returns a new locale-aware string collator. Collators are not safe
// for concurrent use; callers get their own.
func (l *Localizer) Collator() *collate.Collator {
	return collate.New(l.tag)
}

// SortStrings sorts names in place by locale collation.
func (l *Localizer) SortStrings(names []string) {
	c := l.Collator()
	sort.SliceStable(names, func(i, j int) bool {
		return c.CompareString(names[i], names[j]) < 0
	})
}

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	mustSet(b, language.English, keyItems, plural.Selectf(1, "%d",
		plural.One, "%d item",
		plural.Other, "%d items",
	))
	mustSet(b, language.German, keyItems, plural.Selectf(1, "%d",
		plural.One, "%d Gegenstand",
		plural.Other, "%d Gegenstände",
	))
	mustSet(b, language.Slovenian, keyItems, plural.Selectf(1, "%d",
		plural.One, "%d predmet",
		plural.Two, "%d predmeta",
		plural.Few, "%d predmeti",
		plural.Other, "%d predmetov",
	))

	mustSetString(b, language.English, keyCopy, "%s (copy)")
	mustSetString(b, language.German, keyCopy, "%s (Kopie)")
	mustSetString(b, language.Slovenian, keyCopy, "%s (kopija)")

	mustSetString(b, language.English, keyAll, "All")
	mustSetString(b, language.German, keyAll, "Alle")
	mustSetString(b, language.Slovenian, keyAll, "Vse")

	return b
}

func mustSet(b *catalog.Builder, tag language.Tag, key string, msg catalog.Message) {
	if err := b.Set(tag, key, msg); err != nil {
		panic("i18n: " + err.Error())
	}
}

func mustSetString(b *catalog.Builder, tag language.Tag, key, msg string) {
	if err := b.SetString(tag, key, msg); err != nil {
		panic("i18n: " + err.Error())
	}
}
