package evaluator

import (
	"regexp"
	"strings"
)

const _importKeyword = "import"

var (
	// Lines starting with one of these words introduce a declaration or a control structure and
	// never yield a value on their own.
	_statementKeywords = map[string]bool{
		"class":     true,
		"namespace": true,
		"function":  true,
		"local":     true,
		"if":        true,
		"for":       true,
		"while":     true,
		"repeat":    true,
		"until":     true,
		"do":        true,
		"else":      true,
		"elseif":    true,
		"end":       true,
		"return":    true,
		"goto":      true,
		"break":     true,
	}

	_blockEndWords = map[string]bool{
		"do":   true,
		"then": true,
		"else": true,
		"end":  true,
	}

	// A line ending in one of these leaves its expression open on the next line.
	_continuationSuffixes = []string{
		"(", "{", "[", ",", "=", "+", "-", "*", "/", "%", "^", "..", "<", ">", "~", "&", "|",
		" and", " or", " not",
	}

	_assignment = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=[^=]`)
	_identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
	_lastWord   = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*$`)
)

// splitImports removes import lines from source. It returns the normalized imports in source
// order and the residual payload. A ';' on an import line ends the import and the rest of the
// line stays in the payload.
func splitImports(source string) (imports []string, payload string) {
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	rest := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !isImportLine(trimmed) {
			rest = append(rest, line)
			continue
		}

		decl, remainder, _ := strings.Cut(trimmed, ";")
		if imp, ok := normalizeImport(decl); ok {
			imports = append(imports, imp)
		}
		if remainder = strings.TrimSpace(remainder); remainder != "" {
			rest = append(rest, remainder)
		}
	}
	return imports, strings.Join(rest, "\n")
}

func isImportLine(trimmed string) bool {
	if !strings.HasPrefix(trimmed, _importKeyword) || len(trimmed) == len(_importKeyword) {
		return false
	}
	c := trimmed[len(_importKeyword)]
	return c == ' ' || c == '\t'
}

// normalizeImport turns "import  a.b   as  c" or "a.b as c" into "import a.b as c".
func normalizeImport(decl string) (string, bool) {
	fields := strings.Fields(decl)
	if len(fields) > 0 && fields[0] == _importKeyword {
		fields = fields[1:]
	}
	switch {
	case len(fields) == 1:
		return _importKeyword + " " + fields[0], true
	case len(fields) == 3 && fields[1] == "as":
		return _importKeyword + " " + fields[0] + " as " + fields[2], true
	default:
		return "", false
	}
}

// parseImport splits a normalized import into its path and the global name it binds.
// The default binding is the last dotted segment of the path; "ns.*" binds every type of ns.
func parseImport(imp string) (path, alias string) {
	fields := strings.Fields(strings.TrimPrefix(imp, _importKeyword))
	if len(fields) == 0 {
		return "", ""
	}
	path = fields[0]
	if len(fields) == 3 {
		return path, fields[2]
	}
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path, path[i+1:]
	}
	return path, path
}

// splitUnits applies the last-line rule: when at least two non-blank lines remain, the last
// one looks like a bare expression and the line before it does not continue onto it, the
// preceding lines form a setup unit and the last line a value unit. Otherwise the payload is a
// single unit.
func splitUnits(payload string) []string {
	lines := strings.Split(payload, "\n")
	last, prev := -1, -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			prev, last = last, i
		}
	}
	if last < 0 {
		return nil
	}
	if prev < 0 || continuesOnNextLine(lines[prev]) || !isExpressionCandidate(lines[last]) {
		return []string{strings.TrimSpace(payload)}
	}
	return []string{
		strings.TrimSpace(strings.Join(lines[:last], "\n")),
		strings.TrimSpace(lines[last]),
	}
}

// isExpressionCandidate is a lexical guess at whether line is a bare expression. It can
// misclassify; see DESIGN.md.
func isExpressionCandidate(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || isImportLine(trimmed) {
		return false
	}
	if word := _identifier.FindString(trimmed); _statementKeywords[word] {
		return false
	}
	if strings.ContainsAny(trimmed[:1], ".)}]:,@") {
		return false
	}
	if strings.ContainsAny(trimmed[len(trimmed)-1:], ";{}(,") {
		return false
	}
	if _blockEndWords[_lastWord.FindString(trimmed)] {
		return false
	}
	return true
}

// continuesOnNextLine reports whether line ends with an open bracket, a separator or a binary
// operator.
func continuesOnNextLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	trimmed = " " + trimmed
	for _, suffix := range _continuationSuffixes {
		if strings.HasSuffix(trimmed, suffix) {
			return true
		}
	}
	return false
}

// assignedName returns the global assigned by a single-line "name = expr" statement.
func assignedName(unit string) (string, bool) {
	if strings.Contains(unit, "\n") {
		return "", false
	}
	m := _assignment.FindStringSubmatch(strings.TrimSpace(unit))
	if m == nil || _statementKeywords[m[1]] {
		return "", false
	}
	return m[1], true
}
