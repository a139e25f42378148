package sensitive

// East Asian scripts block, CJK Radicals Supplement through CJK Unified Ideographs.
const (
	eastAsianFirst = 0x2E80
	eastAsianLast  = 0x9FFF
)

// IsSymbol reports whether r is excluded from keyword matching. ASCII letters,
// ASCII digits and East Asian characters take part in matching, everything
// else (punctuation, spaces, other scripts, emoji) is a symbol.
func IsSymbol(r rune) bool {
	return !isASCIIAlnum(r) && (r < eastAsianFirst || r > eastAsianLast)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
