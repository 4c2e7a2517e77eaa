package extractor

import (
	"encoding/json"
	"strings"

	"cardealworker/internal/ad"
	errs "cardealworker/pkg/errors"
)

// dartMarker opens the inline script call whose single argument is the
// embedded JSON payload.
const dartMarker = "mobile.dart.setAdData("

// extractDart locates the embedded payload and parses it. A fixed ");"
// terminator search is not safe here: the token can legitimately occur
// inside the payload's own string content (seller descriptions with
// emoticons broke it in the wild), so the closing parenthesis is found
// by depth counting instead.
func extractDart(html string) (ad.DartData, error) {
	var dart ad.DartData

	start := strings.Index(html, dartMarker)
	if start < 0 {
		return dart, errs.NewMalformedEmbeddedData(component, "dart marker not found", nil)
	}

	payload, ok := scanCallArgument(html[start+len(dartMarker):])
	if !ok {
		return dart, errs.NewMalformedEmbeddedData(component, "unterminated dart payload", nil)
	}

	if err := json.Unmarshal([]byte(payload), &dart); err != nil {
		return dart, errs.NewMalformedEmbeddedData(component, "unparsable dart payload", err)
	}
	return dart, nil
}

// scanCallArgument returns the text up to the parenthesis closing the
// script call, tracking brace/bracket depth and skipping string
// literals including escape sequences.
func scanCallArgument(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		case ')':
			if depth == 0 {
				return s[:i], true
			}
		}
	}
	return "", false
}
