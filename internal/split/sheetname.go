package split

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxSheetNameLen is the spreadsheet ceiling on worksheet title length.
	MaxSheetNameLen = 31
	// DefaultPlaceholder names the sheet of an empty group key.
	DefaultPlaceholder = "unnamed"
)

// ':' is not a grouping concern but the encoder rejects it as well.
var forbiddenChars = strings.NewReplacer(
	"[", "_", "]", "_", "*", "_", "?", "_", "/", "_", `\`, "_", ":", "_",
)

// SanitizeSheetName turns a group key into a valid worksheet title. An empty
// key becomes placeholder; the result is cut to MaxSheetNameLen characters
// first, then forbidden characters are replaced one-for-one with '_'.
func SanitizeSheetName(key, placeholder string) string {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	name := key
	if name == "" {
		name = placeholder
	}

	name = truncate(name, MaxSheetNameLen)
	name = forbiddenChars.Replace(name)

	// Titles may not start or end with an apostrophe.
	if strings.HasPrefix(name, "'") {
		name = "_" + name[1:]
	}
	if strings.HasSuffix(name, "'") {
		name = name[:len(name)-1] + "_"
	}
	return name
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Namer hands out worksheet titles that are unique within one workbook.
// Titles compare with strings.EqualFold, the rule the encoder uses to find an
// existing sheet; a repeat gets a " (2)", " (3)", ... suffix with the base
// shortened to stay within MaxSheetNameLen.
type Namer struct {
	used []string
}

// NewNamer returns an empty Namer.
func NewNamer() *Namer {
	return &Namer{}
}

// Unique returns name, or a suffixed variant of it if already handed out.
func (n *Namer) Unique(name string) string {
	if !n.taken(name) {
		n.used = append(n.used, name)
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate := truncate(name, MaxSheetNameLen-len(suffix)) + suffix
		if !n.taken(candidate) {
			n.used = append(n.used, candidate)
			return candidate
		}
	}
}

func (n *Namer) taken(name string) bool {
	for _, u := range n.used {
		if strings.EqualFold(u, name) {
			return true
		}
	}
	return false
}
