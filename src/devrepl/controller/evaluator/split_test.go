package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitImports(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		wantImports []string
		wantPayload string
	}{
		{
			name:        "no imports",
			source:      "x = 1\nx",
			wantPayload: "x = 1\nx",
		},
		{
			name:        "import only",
			source:      "import time",
			wantImports: []string{"import time"},
			wantPayload: "",
		},
		{
			name:        "remainder after semicolon",
			source:      "import time; time.now()",
			wantImports: []string{"import time"},
			wantPayload: "time.now()",
		},
		{
			name:        "alias and extra spaces",
			source:      "  import   shop.Cart   as  C\nC.new{}",
			wantImports: []string{"import shop.Cart as C"},
			wantPayload: "C.new{}",
		},
		{
			name:        "crlf line endings",
			source:      "import json\r\njson.encode(1)",
			wantImports: []string{"import json"},
			wantPayload: "json.encode(1)",
		},
		{
			name:        "identifier starting with import",
			source:      "imported = 1",
			wantPayload: "imported = 1",
		},
		{
			name:        "malformed import is dropped",
			source:      "import a b c d\n1",
			wantPayload: "1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imports, payload := splitImports(tt.source)
			assert.Equal(t, tt.wantImports, imports)
			assert.Equal(t, tt.wantPayload, payload)
		})
	}
}

func TestParseImport(t *testing.T) {
	tests := []struct {
		imp       string
		wantPath  string
		wantAlias string
	}{
		{imp: "import time", wantPath: "time", wantAlias: "time"},
		{imp: "import shop.Cart", wantPath: "shop.Cart", wantAlias: "Cart"},
		{imp: "import shop.Cart as C", wantPath: "shop.Cart", wantAlias: "C"},
		{imp: "import shop.*", wantPath: "shop.*", wantAlias: "*"},
		{imp: "import", wantPath: "", wantAlias: ""},
	}
	for _, tt := range tests {
		t.Run(tt.imp, func(t *testing.T) {
			path, alias := parseImport(tt.imp)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantAlias, alias)
		})
	}
}

func TestIsExpressionCandidate(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{line: "f(41)", want: true},
		{line: "x", want: true},
		{line: "a + b * 2", want: true},
		{line: "obj:method()", want: true},
		{line: `"text"`, want: true},
		{line: "x = 1", want: true},
		{line: "", want: false},
		{line: "   ", want: false},
		{line: "import time", want: false},
		{line: "local y = 2", want: false},
		{line: "function f() end", want: false},
		{line: "class \"A\" {}", want: false},
		{line: "if x then", want: false},
		{line: "for i = 1, 3 do", want: false},
		{line: "end", want: false},
		{line: "return x", want: false},
		{line: "x = 1;", want: false},
		{line: "t = {", want: false},
		{line: "}", want: false},
		{line: "f(", want: false},
		{line: "a,", want: false},
		{line: ".field", want: false},
		{line: ")", want: false},
		{line: ":m()", want: false},
		{line: "@x", want: false},
		{line: "x > 1 and y or z then", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, isExpressionCandidate(tt.line))
		})
	}
}

func TestSplitUnits(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{name: "empty", payload: "\n  \n", want: nil},
		{name: "single line", payload: "f(1)", want: []string{"f(1)"}},
		{
			name:    "setup and value",
			payload: "function f(x) return x + 1 end\n\nf(41)\n",
			want:    []string{"function f(x) return x + 1 end", "f(41)"},
		},
		{
			name:    "last line is not an expression",
			payload: "x = 1\nif x then\n  y = 2\nend",
			want:    []string{"x = 1\nif x then\n  y = 2\nend"},
		},
		{
			name:    "multi-line setup",
			payload: "a = 1\nb = 2\na + b",
			want:    []string{"a = 1\nb = 2", "a + b"},
		},
		{
			name:    "open call on previous line",
			payload: "print(\n  'hi')",
			want:    []string{"print(\n  'hi')"},
		},
		{
			name:    "binary operator on previous line",
			payload: "local s = 1 +\n  2",
			want:    []string{"local s = 1 +\n  2"},
		},
		{
			name:    "logical operator on previous line",
			payload: "ok = a and\n  b",
			want:    []string{"ok = a and\n  b"},
		},
		{
			name:    "closed table then value",
			payload: "t = {\n  a = 1\n}\nt.a",
			want:    []string{"t = {\n  a = 1\n}", "t.a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitUnits(tt.payload))
		})
	}
}

func TestContinuesOnNextLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{line: "print(", want: true},
		{line: "t = {", want: true},
		{line: "f(a,", want: true},
		{line: "s = 'a' ..", want: true},
		{line: "x = y or", want: true},
		{line: "x = y", want: false},
		{line: "color", want: false},
		{line: "f(1)", want: false},
		{line: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, continuesOnNextLine(tt.line))
		})
	}
}

func TestAssignedName(t *testing.T) {
	tests := []struct {
		unit   string
		want   string
		wantOK bool
	}{
		{unit: "x = 5", want: "x", wantOK: true},
		{unit: "  total=a+b", want: "total", wantOK: true},
		{unit: "x == 5"},
		{unit: "t.x = 5"},
		{unit: "local x = 5"},
		{unit: "x = 1\ny = 2"},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			got, ok := assignedName(tt.unit)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
