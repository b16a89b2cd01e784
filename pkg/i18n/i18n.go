// Package i18n renders diagnostic messages through golang.org/x/text/message.
//
// Message keys are the English templates defined in pkg/core. English needs
// no translation except for plural forms; other languages are added with
// SetString.
package i18n

import (
	"fmt"
	"sync"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/leapstack-labs/leapexpr/pkg/core"
)

var (
	mu      sync.RWMutex
	builder = catalog.NewBuilder(catalog.Fallback(language.English))
)

func init() {
	must(builder.Set(language.English, string(core.MsgArityExact),
		plural.Selectf(2, "%d",
			"=1", "Function %[1]s expects 1 argument",
			"other", "Function %[1]s expects %[2]d arguments")))
	must(builder.Set(language.English, string(core.MsgArityAtLeast),
		plural.Selectf(2, "%d",
			"=1", "Function %[1]s expects at least 1 argument",
			"other", "Function %[1]s expects at least %[2]d arguments")))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Localizer implements core.Localizer for one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a localizer for tag.
func New(tag language.Tag) *Localizer {
	return &Localizer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(builder))}
}

// Parse returns a localizer for a BCP 47 language name such as "en" or "de-CH".
func Parse(lang string) (*Localizer, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", lang, err)
	}
	return New(tag), nil
}

// English returns the default localizer.
func English() *Localizer {
	return New(language.English)
}

// Tag returns the localizer's language.
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// Sprintf implements core.Localizer.
func (l *Localizer) Sprintf(key core.MessageKey, args ...any) string {
	mu.RLock()
	defer mu.RUnlock()
	return l.printer.Sprintf(string(key), args...)
}

// SetString registers a translation of key for tag.
func SetString(tag language.Tag, key core.MessageKey, translation string) error {
	mu.Lock()
	defer mu.Unlock()
	return builder.SetString(tag, string(key), translation)
}
