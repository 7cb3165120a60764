// Package textenc recovers text from byte strings of unknown origin.
// Torrent names and file paths in the wild carry a mix of UTF-8 and
// regional legacy code pages, so decoding tries a preference-ordered
// candidate list and falls back to lossy UTF-8 as a last resort.
package textenc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// Candidate is a named decoder attempt. Decode reports false when the
// bytes are not valid in this encoding.
type Candidate struct {
	Name   string
	Decode func(b []byte) (string, bool)
}

// Chain is an ordered list of candidates tried in preference order.
type Chain []Candidate

// Default mirrors the encodings commonly seen in regional torrent naming.
// UTF-8 goes first; latin1 accepts any byte sequence, so it terminates the
// chain before the lossy fallback ever triggers on single-byte input.
var Default = Chain{
	UTF8(),
	FromEncoding("shift_jis", japanese.ShiftJIS),
	FromEncoding("euc_jp", japanese.EUCJP),
	FromEncoding("gbk", simplifiedchinese.GBK),
	FromEncoding("gb18030", simplifiedchinese.GB18030),
	FromEncoding("cp1251", charmap.Windows1251),
	FromEncoding("latin1", charmap.ISO8859_1),
}

// Recover decodes b with the first candidate that accepts it. If every
// candidate rejects the input it returns a lossy UTF-8 decode with
// replacement characters, so it never fails. Deterministic for identical
// input.
func (c Chain) Recover(b []byte) string {
	for _, cand := range c {
		if s, ok := cand.Decode(b); ok {
			return s
		}
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// Recover decodes b with the default candidate chain.
func Recover(b []byte) string {
	return Default.Recover(b)
}

func UTF8() Candidate {
	return Candidate{
		Name: "utf-8",
		Decode: func(b []byte) (string, bool) {
			if !utf8.Valid(b) {
				return "", false
			}
			return string(b), true
		},
	}
}

// FromEncoding adapts an x/text encoding into a candidate. x/text decoders
// substitute U+FFFD for invalid sequences instead of failing, so output
// containing a replacement rune counts as a rejection.
func FromEncoding(name string, enc encoding.Encoding) Candidate {
	return Candidate{
		Name: name,
		Decode: func(b []byte) (string, bool) {
			s, err := enc.NewDecoder().Bytes(b)
			if err != nil || strings.ContainsRune(string(s), utf8.RuneError) {
				return "", false
			}
			return string(s), true
		},
	}
}
