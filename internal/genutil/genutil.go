package genutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// TypePrefix is prepended to every generated type name.
const TypePrefix = "Airtable"

var (
	nonalnumrx = regexp.MustCompile(`[^a-zA-Z0-9]`)
	wsrx       = regexp.MustCompile(`\s+`)
	alnumrx    = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// SanitizeName turns an arbitrary table name into a TypeScript type name:
// non alphanumeric characters are dropped, the first letter is upper cased
// and the result is prefixed with TypePrefix.
func SanitizeName(s string) string {
	return TypePrefix + sanitize(s)
}

func sanitize(s string) string {
	s = nonalnumrx.ReplaceAllString(s, " ")
	s = wsrx.ReplaceAllString(s, "")
	if len(s) > 0 && s[0] >= 'a' && s[0] <= 'z' {
		s = strings.ToUpper(s[:1]) + s[1:]
	}
	return s
}

func IsAlphanumeric(s string) bool {
	return alnumrx.MatchString(s)
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Quote returns s as a double quoted TypeScript string literal.
func Quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

// PropertyName returns s unchanged when it can be used as a bare property
// name, and quoted otherwise.
func PropertyName(s string) string {
	if IsAlphanumeric(s) {
		return s
	}
	return Quote(s)
}

func WriteImports(out io.Writer, from string, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	_, err := fmt.Fprintf(out, "import { %s } from '%s';\n\n", strings.Join(names, ", "), from)
	return err
}

func CreateFile(fn string) (*os.File, error) {
	dir := filepath.Dir(fn)
	if _, err := os.Stat(dir); err != nil {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(fn)
	if err != nil {
		return nil, err
	}
	return f, nil
}
