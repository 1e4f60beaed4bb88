package crawler

import "strings"

const (
	// schemePrefixLen is the number of leading characters dropped from a
	// URL before sanitizing. It equals len("https://"); for http URLs this
	// also eats the first host character, which existing corpora depend on.
	schemePrefixLen = 8

	// maxFilenameLen bounds the sanitized name, before the .txt suffix.
	maxFilenameLen = 64

	// TextFileExt is the extension of page text files.
	TextFileExt = ".txt"
)

var filenameReplacer = strings.NewReplacer("/", "__", ":", "--")

// SanitizeFilename turns a URL into the base name of its text file:
// the first 8 characters are dropped, every "/" becomes "__", every ":"
// becomes "--", and the result is cut to 64 characters.
//
// The transform is lossy. Distinct URLs sharing their first 64 transformed
// characters map to the same name, and the page visited later overwrites
// the earlier file.
func SanitizeFilename(rawURL string) string {
	runes := []rune(rawURL)
	if len(runes) <= schemePrefixLen {
		runes = nil
	} else {
		runes = runes[schemePrefixLen:]
	}

	name := []rune(filenameReplacer.Replace(string(runes)))
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	return string(name)
}

// PageFilename returns the file name, including extension, for rawURL.
func PageFilename(rawURL string) string {
	return SanitizeFilename(rawURL) + TextFileExt
}
