package goemitter

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// initialisms are written in upper case inside Go identifiers.
var initialisms = map[string]bool{
	"ACL": true, "API": true, "ASCII": true, "CPU": true, "CSS": true, "CSV": true,
	"DNS": true, "EOF": true, "GUID": true, "HTML": true, "HTTP": true, "HTTPS": true,
	"ID": true, "IP": true, "JSON": true, "JWT": true, "OS": true, "QPS": true,
	"RAM": true, "RPC": true, "SKU": true, "SLA": true, "SQL": true, "SSH": true,
	"TCP": true, "TLS": true, "TTL": true, "UI": true, "UID": true, "URI": true,
	"URL": true, "UTF8": true, "UUID": true, "VM": true, "XML": true,
}

// exportedName converts an OpenAPI name (operation segment, schema name,
// property, parameter) into an exported Go identifier: separators are dropped,
// every word is title-cased and common initialisms are upper-cased.
// "x-request-id" becomes "XRequestID"; "userDto" becomes "UserDto".
func exportedName(s string) string {
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, part := range splitWords(s) {
		if initialisms[strings.ToUpper(part)] {
			b.WriteString(strings.ToUpper(part))
			continue
		}
		b.WriteString(title.String(part))
	}
	name := b.String()
	if name == "" {
		return ""
	}
	if r := rune(name[0]); !unicode.IsLetter(r) {
		name = "X" + name
	}
	return name
}

// splitWords breaks s at non-alphanumeric characters and at lower-to-upper
// case transitions. Runs of upper case stay together ("HTTPServer" gives
// "HTTP", "Server").
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// lowerFirst turns an exported identifier into an unexported one, lowering a
// leading initialism as a whole: "APIKeys" becomes "apiKeys". Go keywords get
// a trailing underscore.
func lowerFirst(name string) string {
	runes := []rune(name)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
	case n == 1 || n == len(runes):
		for i := 0; i < n; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
	default:
		// keep the last capital of a run when it starts the next word
		for i := 0; i < n-1; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
		if !unicode.IsLower(runes[n]) {
			runes[n-1] = unicode.ToLower(runes[n-1])
		}
	}
	out := string(runes)
	if token.IsKeyword(out) {
		out += "_"
	}
	return out
}

// fileName is the lower-case, underscore-separated file stem for name.
func fileName(name string) string {
	words := splitWords(name)
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	return strings.Join(words, "_")
}

// packageName derives a Go package name from the last element of a module
// path, skipping a major version suffix.
func packageName(modulePath string) string {
	elems := strings.Split(strings.Trim(modulePath, "/"), "/")
	last := elems[len(elems)-1]
	if len(elems) > 1 && isMajorSuffix(last) {
		last = elems[len(elems)-2]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(last) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) || token.IsKeyword(name) {
		return "sdk"
	}
	return name
}

func isMajorSuffix(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

// slug lowers title into dash-separated words, e.g. "Rewards API" to
// "rewards-api".
func slug(title string) string {
	words := splitWords(title)
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	return strings.Join(words, "-")
}

// uniqueNamer hands out identifiers, suffixing repeats with 2, 3, ...
type uniqueNamer map[string]int

func (u uniqueNamer) next(name string) string {
	u[name]++
	if n := u[name]; n > 1 {
		alt := name + strconv.Itoa(n)
		for u[alt] > 0 {
			n++
			alt = name + strconv.Itoa(n)
		}
		u[alt]++
		return alt
	}
	return name
}

// commentLines renders text as // lines at the given indent, wrapping nothing
// and dropping trailing blank lines.
func commentLines(text, indent string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		b.WriteString(indent)
		if line == "" {
			b.WriteString("//\n")
			continue
		}
		b.WriteString("// ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// firstLine returns the first non-empty line of s, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// buildSuffixes are file-name suffixes the go tool treats as build
// constraints.
var buildSuffixes = map[string]bool{
	"test": true, "aix": true, "android": true, "darwin": true, "dragonfly": true,
	"freebsd": true, "hurd": true, "illumos": true, "ios": true, "js": true,
	"linux": true, "nacl": true, "netbsd": true, "openbsd": true, "plan9": true,
	"solaris": true, "wasip1": true, "windows": true, "zos": true,
	"386": true, "amd64": true, "arm": true, "arm64": true, "loong64": true,
	"mips": true, "mipsle": true, "mips64": true, "mips64le": true, "ppc64": true,
	"ppc64le": true, "riscv64": true, "s390x": true, "wasm": true,
}

// goFileName returns a .go file name for stem that the go tool always
// compiles.
func goFileName(stem string) string {
	if i := strings.LastIndex(stem, "_"); i >= 0 && buildSuffixes[stem[i+1:]] {
		stem += "_controller"
	}
	return stem + ".go"
}
