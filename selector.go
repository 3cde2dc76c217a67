package reveal

import "strings"

// simpleSelector matches one compound selector: optional name (#name),
// any number of classes (.a.b), any number of attribute presences ([attr]),
// or the universal selector.
type simpleSelector struct {
	any     bool
	name    string
	classes []string
	attrs   []string
}

// selector is a comma-separated list of simple selectors.
type selector []simpleSelector

// parseSelector parses the subset of selector syntax the document supports:
//
//	*            every element
//	#hero        element named "hero"
//	.card.wide   elements carrying both classes
//	[data-x]     elements carrying the attribute
//	a, b         either
func parseSelector(s string) (selector, bool) {
	var out selector
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		ss, ok := parseSimple(part)
		if !ok {
			return nil, false
		}
		out = append(out, ss)
	}
	return out, len(out) > 0
}

func parseSimple(s string) (simpleSelector, bool) {
	var ss simpleSelector
	if s == "*" {
		ss.any = true
		return ss, true
	}
	for len(s) > 0 {
		switch s[0] {
		case '#':
			tok, rest := token(s[1:])
			if tok == "" || ss.name != "" {
				return ss, false
			}
			ss.name, s = tok, rest
		case '.':
			tok, rest := token(s[1:])
			if tok == "" {
				return ss, false
			}
			ss.classes = append(ss.classes, tok)
			s = rest
		case '[':
			end := strings.IndexByte(s, ']')
			if end < 2 {
				return ss, false
			}
			ss.attrs = append(ss.attrs, strings.TrimSpace(s[1:end]))
			s = s[end+1:]
		default:
			return ss, false
		}
	}
	return ss, true
}

// token reads up to the next selector delimiter.
func token(s string) (tok, rest string) {
	i := strings.IndexAny(s, "#.[ ")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func (sel selector) matches(e *Element) bool {
	for _, ss := range sel {
		if ss.matches(e) {
			return true
		}
	}
	return false
}

func (ss simpleSelector) matches(e *Element) bool {
	if ss.any {
		return true
	}
	if ss.name != "" && e.Name != ss.name {
		return false
	}
	for _, c := range ss.classes {
		if !e.HasClass(c) {
			return false
		}
	}
	for _, a := range ss.attrs {
		if !e.HasAttr(a) {
			return false
		}
	}
	return true
}
