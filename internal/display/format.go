package display

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en-US"

// SizeFormatter renders byte counts with locale-aware digit grouping.
type SizeFormatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewSizeFormatter parses a BCP 47 locale such as "en-US" or "de-DE".
// An empty locale selects DefaultLocale.
func NewSizeFormatter(locale string) (*SizeFormatter, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return &SizeFormatter{tag: tag, printer: message.NewPrinter(tag)}, nil
}

// Locale returns the canonical tag in use.
func (f *SizeFormatter) Locale() string {
	return f.tag.String()
}

// Format returns e.g. "1,048,576 bytes" for en-US.
func (f *SizeFormatter) Format(n int64) string {
	return f.printer.Sprintf("%v bytes", number.Decimal(n))
}
