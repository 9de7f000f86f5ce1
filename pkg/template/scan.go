package template

import (
	"regexp"
	"sort"
	"strings"

	"github.com/goliatone/go-jen/pkg/helper"
)

// CallSite is one helper invocation found in template source.
type CallSite struct {
	Name   string
	Line   int
	Column int
}

var (
	macroDefPattern  = regexp.MustCompile(`\{%-?\s*macro\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	importPattern    = regexp.MustCompile(`\{%-?\s*import\s+(?:"[^"]*"|'[^']*')\s+(.+?)\s*-?%\}`)
	blockEndPatterns = map[string]*regexp.Regexp{
		"comment":  regexp.MustCompile(`\{%-?\s*endcomment\s*-?%\}`),
		"verbatim": regexp.MustCompile(`\{%-?\s*endverbatim\s*-?%\}`),
	}
)

// Words that may precede "(" without being a call.
var operatorWords = map[string]bool{
	"in": true, "and": true, "or": true, "not": true,
	"true": true, "false": true, "nil": true, "as": true,
}

// scanner walks the code regions of a template ({{ }} and {% %}), records
// helper call sites, reports calls to unknown names and rewrites keyword
// arguments into the positional form the engine understands. Text outside
// code regions is copied unchanged.
type scanner struct {
	source  string
	src     string
	helpers map[string]helper.Helper
	macros  map[string]bool
	sites   []CallSite
	err     *ValidationError
}

func scan(source, src string, helpers map[string]helper.Helper) (string, []CallSite, error) {
	s := &scanner{
		source:  source,
		src:     src,
		helpers: helpers,
		macros:  collectMacros(src),
	}
	out := s.run()
	if s.err != nil {
		return "", nil, s.err
	}
	return out, s.sites, nil
}

func collectMacros(src string) map[string]bool {
	macros := make(map[string]bool)
	for _, m := range macroDefPattern.FindAllStringSubmatch(src, -1) {
		macros[m[1]] = true
	}
	for _, m := range importPattern.FindAllStringSubmatch(src, -1) {
		for _, part := range strings.Split(m[1], ",") {
			fields := strings.Fields(part)
			switch {
			case len(fields) >= 3 && fields[1] == "as":
				macros[fields[2]] = true
			case len(fields) >= 1:
				macros[fields[0]] = true
			}
		}
	}
	return macros
}

func (s *scanner) run() string {
	var out strings.Builder
	out.Grow(len(s.src))
	src := s.src
	i := 0

	for i < len(src) {
		k := nextOpener(src, i)
		if k < 0 {
			out.WriteString(src[i:])
			break
		}
		out.WriteString(src[i:k])

		if src[k+1] == '#' {
			end := strings.Index(src[k+2:], "#}")
			if end < 0 {
				out.WriteString(src[k:])
				break
			}
			end = k + 2 + end + 2
			out.WriteString(src[k:end])
			i = end
			continue
		}

		tag := src[k+1] == '%'
		closer := "}}"
		if tag {
			closer = "%}"
		}
		end := codeEnd(src, k+2, closer)
		if end < 0 {
			// Unterminated region; the parser reports it.
			out.WriteString(src[k:])
			break
		}
		code := src[k+2 : end]

		if tag {
			if endPattern, ok := blockEndPatterns[tagName(code)]; ok {
				loc := endPattern.FindStringIndex(src[end+2:])
				if loc == nil {
					out.WriteString(src[k:])
					break
				}
				stop := end + 2 + loc[1]
				out.WriteString(src[k:stop])
				i = stop
				continue
			}
		}

		out.WriteString(src[k : k+2])
		out.WriteString(s.code(code, k+2, tag))
		out.WriteString(closer)
		i = end + 2
	}
	return out.String()
}

// code rewrites one code region. base is the offset of code within the
// original source, used for error positions.
func (s *scanner) code(code string, base int, tag bool) string {
	var out strings.Builder
	skipTagName := tag
	defining := false
	var prev byte

	for i := 0; i < len(code); {
		c := code[i]
		switch {
		case c == '"' || c == '\'':
			end := stringEnd(code, i)
			out.WriteString(code[i:end])
			prev = c
			i = end

		case isIdentStart(c):
			j := i + 1
			for j < len(code) && isIdentChar(code[j]) {
				j++
			}
			word := code[i:j]
			if skipTagName {
				skipTagName = false
				defining = word == "macro"
				out.WriteString(word)
				prev = 'a'
				i = j
				continue
			}

			k := j
			for k < len(code) && isSpace(code[k]) {
				k++
			}
			isCall := k < len(code) && code[k] == '(' && !operatorWords[word] && prev != '.' && prev != '|'
			if !isCall {
				out.WriteString(word)
				prev = 'a'
				i = j
				continue
			}

			closeAt := matchParen(code, k)
			if closeAt < 0 {
				out.WriteString(code[i:])
				return out.String()
			}
			out.WriteString(s.call(word, defining, code, base, i, k+1, closeAt))
			defining = false
			prev = ')'
			i = closeAt + 1

		case isDigit(c):
			j := i + 1
			for j < len(code) && isIdentChar(code[j]) {
				j++
			}
			out.WriteString(code[i:j])
			prev = '0'
			i = j

		default:
			out.WriteByte(c)
			if !isSpace(c) {
				prev = c
			}
			i++
		}
	}
	return out.String()
}

// call handles name(args) where the argument list spans code[from:to].
func (s *scanner) call(name string, defining bool, code string, base, at, from, to int) string {
	line, col := position(s.src, base+at)
	macro := defining || s.macros[name]
	h, known := s.helpers[name]

	switch {
	case macro:
	case !known:
		s.fail(&ValidationError{Source: s.source, Helper: name, Line: line, Column: col, Err: ErrUnknownHelper})
	default:
		s.sites = append(s.sites, CallSite{Name: name, Line: line, Column: col})
	}

	spans := splitArgs(code, from, to)
	args := make([]string, len(spans))
	for n, span := range spans {
		args[n] = s.code(code[span[0]:span[1]], base+span[0], false)
	}

	if known && !macro {
		positional, err := positionalArgs(h, args)
		if err == nil {
			positional, err = expandLists(h, positional)
		}
		if err != nil {
			s.fail(&ValidationError{Source: s.source, Helper: name, Line: line, Column: col, Err: err})
		} else {
			args = positional
		}
	}
	return name + "(" + strings.Join(args, ",") + ")"
}

func (s *scanner) fail(err *ValidationError) {
	if s.err == nil {
		s.err = err
	}
}

// positionalArgs rewrites keyword arguments (name=value) into positional
// order using the helper's declared parameters. Skipped parameters are filled
// with nil so the helper default applies.
func positionalArgs(h helper.Helper, args []string) ([]string, error) {
	type keyword struct{ name, value string }
	var (
		positional []string
		keywords   []keyword
	)
	for _, arg := range args {
		if name, value, ok := splitKeyword(arg); ok {
			keywords = append(keywords, keyword{name: name, value: value})
			continue
		}
		if len(keywords) > 0 {
			return nil, &helper.ArgumentError{Reason: "positional argument follows keyword argument"}
		}
		positional = append(positional, arg)
	}
	if len(keywords) == 0 {
		return args, nil
	}

	params := h.Params()
	slots := make([]string, len(params))
	for _, kw := range keywords {
		idx := -1
		for n, param := range params {
			if param.Name == kw.name {
				idx = n
				break
			}
		}
		switch {
		case idx < 0:
			return nil, &helper.ArgumentError{Param: kw.name, Reason: "is not accepted"}
		case idx < len(positional):
			return nil, &helper.ArgumentError{Param: kw.name, Reason: "is given both positionally and by keyword"}
		case slots[idx] != "":
			return nil, &helper.ArgumentError{Param: kw.name, Reason: "is given more than once"}
		}
		slots[idx] = kw.value
	}

	last := len(positional) - 1
	for n := range slots {
		if slots[n] != "" {
			last = n
		}
	}
	out := append([]string(nil), positional...)
	for n := len(positional); n <= last; n++ {
		if slots[n] == "" {
			out = append(out, "nil")
			continue
		}
		out = append(out, slots[n])
	}
	return out, nil
}

// expandLists splices a list literal bound to a variadic parameter into
// separate positional arguments, since the engine has no list syntax.
// random(values=["a", "b"]) becomes random("a", "b").
func expandLists(h helper.Helper, args []string) ([]string, error) {
	params := h.Params()
	out := make([]string, 0, len(args))
	for n, arg := range args {
		items, ok := listItems(arg)
		if !ok {
			out = append(out, arg)
			continue
		}
		var param helper.Param
		switch {
		case n < len(params):
			param = params[n]
		case len(params) > 0:
			param = params[len(params)-1]
		}
		if !param.Variadic {
			return nil, &helper.ArgumentError{Param: param.Name, Reason: "does not accept a list"}
		}
		out = append(out, items...)
	}
	return out, nil
}

// listItems returns the elements of arg when it is a single [...] literal.
func listItems(arg string) ([]string, bool) {
	trimmed := strings.TrimSpace(arg)
	if trimmed == "" || trimmed[0] != '[' || matchParen(trimmed, 0) != len(trimmed)-1 {
		return nil, false
	}
	var items []string
	for _, span := range splitArgs(trimmed, 1, len(trimmed)-1) {
		if item := strings.TrimSpace(trimmed[span[0]:span[1]]); item != "" {
			items = append(items, item)
		}
	}
	return items, true
}

func splitKeyword(arg string) (string, string, bool) {
	trimmed := strings.TrimSpace(arg)
	if trimmed == "" || !isIdentStart(trimmed[0]) {
		return "", "", false
	}
	j := 1
	for j < len(trimmed) && isIdentChar(trimmed[j]) {
		j++
	}
	name := trimmed[:j]
	rest := strings.TrimLeft(trimmed[j:], " \t\r\n")
	if len(rest) == 0 || rest[0] != '=' || (len(rest) > 1 && rest[1] == '=') {
		return "", "", false
	}
	return name, strings.TrimSpace(rest[1:]), true
}

func nextOpener(src string, from int) int {
	for i := from; i < len(src)-1; i++ {
		if src[i] == '{' && (src[i+1] == '{' || src[i+1] == '%' || src[i+1] == '#') {
			return i
		}
	}
	return -1
}

// codeEnd returns the index of closer at or after from, ignoring closers
// inside string literals.
func codeEnd(src string, from int, closer string) int {
	for i := from; i < len(src); {
		switch c := src[i]; {
		case c == '"' || c == '\'':
			i = stringEnd(src, i)
		case strings.HasPrefix(src[i:], closer):
			return i
		default:
			i++
		}
	}
	return -1
}

// stringEnd returns the index just past the literal opening at i.
func stringEnd(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(s)
}

func matchParen(code string, open int) int {
	depth := 0
	for i := open; i < len(code); {
		switch c := code[i]; c {
		case '"', '\'':
			i = stringEnd(code, i)
			continue
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// splitArgs returns the [start, end) spans of top-level comma separated
// arguments inside code[from:to].
func splitArgs(code string, from, to int) [][2]int {
	if strings.TrimSpace(code[from:to]) == "" {
		return nil
	}
	var spans [][2]int
	depth, start := 0, from
	for i := from; i < to; {
		switch c := code[i]; c {
		case '"', '\'':
			i = stringEnd(code, i)
			continue
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				spans = append(spans, [2]int{start, i})
				start = i + 1
			}
		}
		i++
	}
	return append(spans, [2]int{start, to})
}

func tagName(code string) string {
	trimmed := strings.TrimLeft(code, "- \t\r\n")
	j := 0
	for j < len(trimmed) && isIdentChar(trimmed[j]) {
		j++
	}
	return trimmed[:j]
}

func position(src string, offset int) (int, int) {
	if offset > len(src) {
		offset = len(src)
	}
	line := 1 + strings.Count(src[:offset], "\n")
	col := offset + 1
	if nl := strings.LastIndexByte(src[:offset], '\n'); nl >= 0 {
		col = offset - nl
	}
	return line, col
}

func helperNames(sites []CallSite) []string {
	seen := make(map[string]bool, len(sites))
	names := make([]string, 0, len(sites))
	for _, site := range sites {
		if !seen[site.Name] {
			seen[site.Name] = true
			names = append(names, site.Name)
		}
	}
	sort.Strings(names)
	return names
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
