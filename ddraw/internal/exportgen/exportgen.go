// Package exportgen generates the export list of the ddraw package and the
// module definition file of the DLL from a single exports table.
//
// The table is a plain text file, one export per line:
//
//	# name                      result   failed
//	AcquireDDThreadLock         HRESULT  DDERR_UNSUPPORTED
//	DDInternalLock              DWORD    0xFFFFFFFF
//
// result is the return type of the export and failed the value it returns
// when the call cannot be served (missing system symbol, recovered panic).
// failed is either an identifier of the ddraw package or a numeric literal.
package exportgen

import (
	"bufio"
	"bytes"
	"fmt"
	"go/format"
	"regexp"
	"sort"
	"strings"
	"text/template"
)

const (
	ResultHRESULT = "HRESULT"
	ResultDWORD   = "DWORD"
)

type Export struct {
	Name   string
	Result string // HRESULT or DWORD
	Failed string // identifier or numeric literal
}

// FailedExpr is the Go expression of Failed as an uint32.
func (e Export) FailedExpr() string {
	if numberRe.MatchString(e.Failed) {
		return e.Failed
	}
	return "uint32(" + e.Failed + ")"
}

// ResultKind is the name of the ddraw.ResultKind constant of the export.
func (e Export) ResultKind() string {
	return "Result" + e.Result
}

var (
	lineRe   = regexp.MustCompile(`^([A-Za-z_]\w*)\s+(HRESULT|DWORD)\s+(\S+)$`)
	identRe  = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	numberRe = regexp.MustCompile(`^(0[xX][0-9A-Fa-f]+|[0-9]+)$`)
)

// Parse reads an exports table. Blank lines and lines starting with # are
// ignored. The result is sorted by name.
func Parse(src string) ([]Export, error) {
	var exports []Export
	seen := make(map[string]int)

	sc := bufio.NewScanner(strings.NewReader(src))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: invalid export definition %q", n, line)
		}
		if !identRe.MatchString(m[3]) && !numberRe.MatchString(m[3]) {
			return nil, fmt.Errorf("line %d: invalid failure value %q", n, m[3])
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("line %d: %s already defined at line %d", n, m[1], prev)
		}
		seen[m[1]] = n

		exports = append(exports, Export{Name: m[1], Result: m[2], Failed: m[3]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(exports) == 0 {
		return nil, fmt.Errorf("no export defined")
	}

	sort.Slice(exports, func(i, j int) bool {
		return exports[i].Name < exports[j].Name
	})
	return exports, nil
}

var goTemplate = template.Must(template.New("go").Parse(`// Code generated by exportgen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

// Exports lists the entry points of ddraw.dll sorted by name.
var Exports = []Export{
{{- range .Exports}}
	{Name: "{{.Name}}", Result: {{.ResultKind}}, Failed: {{.FailedExpr}}},
{{- end}}
}
`))

// GenerateGo renders the export list as a gofmt'ed Go file of package pkg.
func GenerateGo(pkg, source string, exports []Export) ([]byte, error) {
	var buf bytes.Buffer
	err := goTemplate.Execute(&buf, struct {
		Package string
		Source  string
		Exports []Export
	}{pkg, source, exports})
	if err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

// GenerateDef renders a module definition file exporting every entry point
// under library.
func GenerateDef(library string, exports []Export) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "LIBRARY %s\n", library)
	buf.WriteString("EXPORTS\n")
	for _, e := range exports {
		fmt.Fprintf(&buf, "\t%s\n", e.Name)
	}
	return buf.Bytes()
}
