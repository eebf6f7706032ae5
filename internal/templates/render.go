package templates

import (
	"strings"

	"github.com/ppiankov/chronoqa/internal/errors"
)

// Slots returns the slot names of a template in order of appearance,
// e.g. "When did {event} begin?" -> [event]
func Slots(text string) ([]string, error) {
	var out []string
	rest := text
	for {
		lb := strings.IndexByte(rest, '{')
		rb := strings.IndexByte(rest, '}')
		switch {
		case lb < 0 && rb < 0:
			return out, nil
		case lb < 0 || rb < lb:
			return nil, errors.Mark(errors.Newf("unbalanced braces in %q", text), errors.ErrTemplate)
		}
		name := rest[lb+1 : rb]
		if name == "" || strings.ContainsAny(name, "{ ") {
			return nil, errors.Mark(errors.Newf("bad slot %q in %q", name, text), errors.ErrTemplate)
		}
		out = append(out, name)
		rest = rest[rb+1:]
	}
}

// Fill substitutes slot values into a template
func Fill(text string, slots map[string]string) (string, error) {
	names, err := Slots(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(text) + 32)
	rest := text
	for _, name := range names {
		value, ok := slots[name]
		if !ok || value == "" {
			return "", errors.Mark(errors.Newf("missing slot %q for %q", name, text), errors.ErrTemplate)
		}
		i := strings.Index(rest, "{"+name+"}")
		b.WriteString(rest[:i])
		b.WriteString(value)
		rest = rest[i+len(name)+2:]
	}
	b.WriteString(rest)
	return b.String(), nil
}
