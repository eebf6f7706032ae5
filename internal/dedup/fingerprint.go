// Package dedup detects semantically duplicate candidates by fingerprint.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/chronoqa/internal/model"
)

// Fingerprint is the SHA-256 of a candidate's canonical form
type Fingerprint [sha256.Size]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Of fingerprints a candidate over its question type, sorted entity ids,
// temporal range and normalized answer. Question wording does not
// participate, so two phrasings of the same fact collapse.
func Of(c *model.Candidate) Fingerprint {
	ids := append([]string(nil), c.EntityIDs...)
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(string(c.Type))
	b.WriteByte(0x1f)
	b.WriteString(strings.Join(ids, "\x1e"))
	b.WriteByte(0x1f)
	b.WriteString(c.Range.Canonical())
	b.WriteByte(0x1f)
	b.WriteString(NormalizeAnswer(c.Answer))
	return sha256.Sum256([]byte(b.String()))
}

// NormalizeAnswer applies NFKC, case folding and whitespace collapse, and
// trims trailing punctuation
func NormalizeAnswer(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}
