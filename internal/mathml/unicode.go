package mathml

import (
	"strconv"
	"sync"
	"unicode"

	"git.sr.ht/~mekyt/latex2mathml"
)

var loadSymbols sync.Once

// unicodeSymbol looks a command up in the unicode-math symbol table. Combining
// marks are left out since they need an argument to attach to.
func unicodeSymbol(name string) (string, bool) {
	loadSymbols.Do(latex2mathml.ParseSymbol)
	code, err := latex2mathml.ConvertSymbol(`\` + name)
	if err != nil || code == "" {
		return "", false
	}
	cp, err := strconv.ParseUint(code, 16, 32)
	if err != nil {
		return "", false
	}
	r := rune(cp)
	if !unicode.IsPrint(r) || unicode.Is(unicode.Mn, r) {
		return "", false
	}
	return string(r), true
}
