package codeblock

import (
	"regexp"
	"strconv"
	"strings"
)

// Flag is a per-line annotation.
type Flag uint8

const (
	FlagIns Flag = 1 << iota
	FlagDel
	FlagMark
)

// A marker alone in a trailing comment removes the whole comment.
var (
	commentMarker = regexp.MustCompile(`\s*(?://|#|--|;|%|<!--|/\*|\{/\*)\s*\[!code\s+(\+\+|--|hl|highlight)(?::(\d+))?\]\s*(?:-->|\*/\}|\*/)?\s*$`)
	inlineMarker  = regexp.MustCompile(`\s*\[!code\s+(\+\+|--|hl|highlight)(?::(\d+))?\]`)
)

func markerFlag(kind string) Flag {
	switch kind {
	case "++":
		return FlagIns
	case "--":
		return FlagDel
	default:
		return FlagMark
	}
}

// stripMarkers removes [!code …] markers from lines and returns the flags
// they set. A marker with a count, such as [!code ++:3], flags that many
// lines starting at its own.
func stripMarkers(lines []string) ([]string, []Flag) {
	out := make([]string, len(lines))
	flags := make([]Flag, len(lines))
	for i, line := range lines {
		re := commentMarker
		m := re.FindStringSubmatchIndex(line)
		if m == nil {
			re = inlineMarker
			m = re.FindStringSubmatchIndex(line)
		}
		if m == nil {
			out[i] = line
			continue
		}
		flag := markerFlag(line[m[2]:m[3]])
		count := 1
		if m[4] >= 0 {
			if n, err := strconv.Atoi(line[m[4]:m[5]]); err == nil && n > 0 {
				count = n
			}
		}
		for j := i; j < len(lines) && j < i+count; j++ {
			flags[j] |= flag
		}
		out[i] = line[:m[0]] + line[m[1]:]
		if re == inlineMarker {
			out[i] = strings.TrimRight(out[i], " \t")
		}
	}
	return out, flags
}
