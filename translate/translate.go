// Package translate resolves the host's locale once and renders the cpu
// package's sentinel errors and fault/link/syntax messages through it.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("qasm: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From renders an en-US Sprintf format through the resolved locale.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
