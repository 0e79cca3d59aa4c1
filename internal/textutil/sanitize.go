package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// maxNameBytes keeps names within common filesystem limits (255 bytes) with
// room for a collision suffix.
const maxNameBytes = 240

// SanitizeFileName returns name in NFC form with unsafe characters replaced
// and control characters dropped. Slashes, backslashes, colons and asterisks
// become dashes. Leading dots are stripped so the result is never hidden.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, fileNameReplacer.Replace(name))
	name = strings.TrimLeft(strings.TrimSpace(name), ".")
	return truncateBytes(strings.TrimSpace(name), maxNameBytes)
}

// OutputName derives the converted file name: the source base name without
// its last extension, a dot, then ext. A source without an extension keeps
// its full base name.
func OutputName(source, ext string) string {
	base := filepath.Base(strings.ReplaceAll(source, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	if e := filepath.Ext(base); e != "" && e != base {
		base = strings.TrimSuffix(base, e)
	}
	return base + "." + strings.TrimPrefix(ext, ".")
}

func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	ext := filepath.Ext(s)
	if len(ext) >= limit {
		ext = ""
	}
	stem := s[:limit-len(ext)]
	for len(stem) > 0 && !utf8.ValidString(stem) {
		stem = stem[:len(stem)-1]
	}
	return stem + ext
}
