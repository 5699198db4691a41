package exposure

// MatchPattern reports whether an entity id matches a shell-style glob
// pattern. The whole string must match, not a substring.
//
// Supported wildcards:
//   - `*` matches any run of characters, including none
//   - `?` matches exactly one character
//   - `[seq]` matches one character in seq, `[!seq]` one not in seq
//
// Malformed patterns (e.g. an unterminated character class) never match
// and never cause an error.
func MatchPattern(s, pattern string) bool {
	var px, sx int
	starPx, starSx := -1, 0

	for sx < len(s) {
		if px < len(pattern) {
			switch c := pattern[px]; c {
			case '*':
				// Record the star position so later mismatches can
				// retry with the star consuming one more character.
				starPx, starSx = px, sx
				px++
				continue
			case '?':
				px++
				sx++
				continue
			case '[':
				ok, next := matchClass(pattern, px, s[sx])
				if next < 0 {
					return false
				}
				if ok {
					px = next
					sx++
					continue
				}
			default:
				if c == s[sx] {
					px++
					sx++
					continue
				}
			}
		}

		// Mismatch: backtrack to the last star, if any.
		if starPx >= 0 {
			starSx++
			px = starPx + 1
			sx = starSx
			continue
		}
		return false
	}

	// Trailing stars match the empty string.
	for px < len(pattern) && pattern[px] == '*' {
		px++
	}
	return px == len(pattern)
}

// matchClass matches one character against the class starting at
// pattern[px] (which must be '['). It returns whether the character
// matched and the index just past the closing bracket, or -1 if the
// class is unterminated.
func matchClass(pattern string, px int, ch byte) (bool, int) {
	i := px + 1

	negate := false
	if i < len(pattern) && pattern[i] == '!' {
		negate = true
		i++
	}

	matched := false
	first := true
	for {
		if i >= len(pattern) {
			return false, -1
		}
		// A ']' directly after '[' or '[!' is a literal member.
		if pattern[i] == ']' && !first {
			i++
			break
		}
		first = false

		lo := pattern[i]
		if i+2 < len(pattern) && pattern[i+1] == '-' && pattern[i+2] != ']' {
			if lo <= ch && ch <= pattern[i+2] {
				matched = true
			}
			i += 3
		} else {
			if ch == lo {
				matched = true
			}
			i++
		}
	}

	return matched != negate, i
}

// ValidatePattern performs the static syntax check on a glob pattern:
// bracket nesting must be balanced, meaning the count of '[' equals the
// count of ']' and the running balance never goes negative.
//
// This is a cheap pre-save check, distinct from match evaluation.
// MatchPattern still treats patterns that slip past it gracefully.
func ValidatePattern(pattern string) bool {
	balance := 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '[':
			balance++
		case ']':
			balance--
			if balance < 0 {
				return false
			}
		}
	}
	return balance == 0
}
