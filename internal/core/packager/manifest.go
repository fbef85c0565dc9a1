package packager

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const manifestLineLimit = 72

// Manifest renders META-INF/MANIFEST.MF. Attributes other than the fixed
// header are written in name order.
func Manifest(mainClass string, extra map[string]string) []byte {
	var b strings.Builder
	writeManifestLine(&b, "Manifest-Version", "1.0")
	writeManifestLine(&b, "Created-By", "garnet")
	if mainClass != "" {
		writeManifestLine(&b, "Main-Class", mainClass)
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		switch name {
		case "Manifest-Version", "Created-By":
			continue
		case "Main-Class":
			if mainClass != "" {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		writeManifestLine(&b, name, extra[name])
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// writeManifestLine wraps at 72 bytes without splitting a UTF-8 sequence;
// continuation lines start with a space.
func writeManifestLine(b *strings.Builder, name, value string) {
	line := name + ": " + value
	limit := manifestLineLimit
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		limit = manifestLineLimit - 1
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}
