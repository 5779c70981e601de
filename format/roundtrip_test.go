package format

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/dhamidi/xjs/xjs/parser"
)

var testcasesDir string
var testFilter string

func init() {
	flag.StringVar(&testcasesDir, "testcases", "", "directory containing .xjs test files")
	flag.StringVar(&testFilter, "filter", "", "filter test files by substring match on filename")
}

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(m.Run())
}

var roundTripCases = []struct {
	name  string
	src   string
	style Style
}{
	{"empty template", "() => {}", DefaultStyle()},
	{"arguments", "(a, b:string, c?, d?:boolean=false) => {\n  <div/>\n}", DefaultStyle()},
	{"attributes", "<div #lbl ##fwd=1 title=\"hi\" [prop]={a.b} {...rest} {::name} @deco @tip=\"x\" @ddd(p1=1 p3)/>", Style{ContentOnly: true}},
	{"blocks", blocksSource, Style{ContentOnly: true, Dialect: parser.DialectText}},
	{"code statements", "let x = 1;\nx++;\n<div>\n  #{x}#\n</div>\nfoo();", Style{ContentOnly: true}},
	{"folded block", "if (a) {\n  x++;\n}\n<div/>", Style{ContentOnly: true}},
	{"else if", "if (a) {\n  <b/>\n} else if (b) {\n  <i/>\n} else {\n  count++;\n}", Style{ContentOnly: true}},
	{"decorator hoisting", "<div><@a/><b/><@c/>#d#</div>", Style{ContentOnly: true}},
	{"cdata", "<!cdata> keep   this </!cdata>", Style{ContentOnly: true}},
	{"text statements", "$log(1); some text <b>bold</b> $if (x) {\n  <i/>\n}", Style{ContentOnly: true, Dialect: parser.DialectText}},
	{"statement in element", "() => {\n  <div>\n    x = 1\n  </div>\n}", DefaultStyle()},
	{"statement before sibling", "<p>\n  $log(1)\n  <b/>\n  $log(2)\n</p>", Style{ContentOnly: true, Dialect: parser.DialectText}},
}

// TestRoundTrip checks that the canonical form is a fixed point:
// formatting the formatted output changes nothing.
func TestRoundTrip(t *testing.T) {
	for _, tt := range roundTripCases {
		t.Run(tt.name, func(t *testing.T) {
			checkRoundTrip(t, []byte(tt.src), tt.style)
		})
	}
}

// TestRoundTripCompact checks that compact output, with no indentation
// and no line breaks between markup, parses back to the same tree.
func TestRoundTripCompact(t *testing.T) {
	for _, tt := range roundTripCases {
		t.Run(tt.name, func(t *testing.T) {
			origAST, err := parser.Parse(tt.src, tt.style.ParseOptions("")...)
			if err != nil {
				t.Fatalf("failed to parse original: %v", err)
			}
			compact, err := compactForm(origAST, tt.style)
			if err != nil {
				t.Fatalf("compact form error: %v", err)
			}

			compactAST, err := parser.Parse(compact, tt.style.ParseOptions("")...)
			if err != nil {
				t.Fatalf("compact output does not parse: %v\n%s", err, compact)
			}
			if diffs := compareNodeCounts(countNodeKinds(origAST), countNodeKinds(compactAST)); len(diffs) > 0 {
				t.Errorf("node count mismatch after compact printing:\n\n%s\n%s", formatDiffs(diffs), compact)
			}

			again, err := compactForm(compactAST, tt.style)
			if err != nil {
				t.Fatalf("compact form error on compact output: %v", err)
			}
			if again != compact {
				t.Errorf("compact form is not stable\n=== first ===\n%q\n=== second ===\n%q", compact, again)
			}
		})
	}
}

func compactForm(root parser.Node, style Style) (string, error) {
	if frag, ok := root.(*parser.Fragment); ok && style.ContentOnly {
		var sb strings.Builder
		err := NewPrinter(&sb).PrintContent(frag.Content)
		return sb.String(), err
	}
	return ToString(root, "")
}

// TestRoundTrip_Testcases runs round-trip tests on all .xjs files in the testcases directory.
// Files under a directory named text are read in the text dialect.
// Use -filter to filter files by substring: go test ./format -filter=list
func TestRoundTrip_Testcases(t *testing.T) {
	if os.Getenv("IN_GIT_PRECOMMIT") == "1" {
		t.Skip("skipping roundtrip tests during pre-commit")
	}

	dir := testcasesDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatalf("failed to get working directory: %v", err)
		}
		for d := wd; d != "/"; d = filepath.Dir(d) {
			candidate := filepath.Join(d, "testcases")
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				dir = candidate
				break
			}
		}
		if dir == "" {
			t.Skip("testcases directory not found; use -testcases flag to specify")
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".xjs") {
			if testFilter != "" && !strings.Contains(path, testFilter) {
				return nil
			}
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk testcases directory: %v", err)
	}

	if len(files) == 0 {
		if testFilter != "" {
			t.Skipf("no .xjs files matching filter %q found in %s", testFilter, dir)
		}
		t.Skipf("no .xjs files found in %s", dir)
	}

	for _, file := range files {
		relPath, err := filepath.Rel(dir, file)
		if err != nil {
			relPath = filepath.Base(file)
		}
		testName := strings.ReplaceAll(relPath, string(filepath.Separator), "_")
		testName = strings.TrimSuffix(testName, ".xjs")

		style := DefaultStyle()
		if filepath.Base(filepath.Dir(file)) == "text" {
			style.Dialect = parser.DialectText
		}

		t.Run(testName, func(t *testing.T) {
			source, err := os.ReadFile(file)
			if err != nil {
				t.Fatalf("failed to read file: %v", err)
			}
			checkRoundTrip(t, source, style)
		})
	}
}

func checkRoundTrip(t *testing.T, source []byte, style Style) {
	t.Helper()

	origAST, err := parser.Parse(string(source), style.ParseOptions("")...)
	if err != nil {
		t.Fatalf("failed to parse original: %v", err)
	}

	formatted, err := Source(source, style)
	if err != nil {
		t.Fatalf("formatter error: %v", err)
	}

	fmtAST, err := parser.Parse(string(formatted), style.ParseOptions("")...)
	if err != nil {
		t.Errorf("formatted output does not parse: %v", err)
		t.Logf("\n=== Formatted output ===\n%s", string(formatted))
		return
	}

	diffs := compareNodeCounts(countNodeKinds(origAST), countNodeKinds(fmtAST))
	if len(diffs) > 0 {
		t.Errorf("node count mismatch after round-trip formatting:\n\n%s", formatDiffs(diffs))
		t.Logf("\n=== Formatted output ===\n%s", string(formatted))
	}

	again, err := Source(formatted, style)
	if err != nil {
		t.Fatalf("formatter error on formatted output: %v", err)
	}
	if string(again) != string(formatted) {
		t.Errorf("canonical form is not stable\n=== first ===\n%s\n=== second ===\n%s", formatted, again)
	}
}

// NodeCountDiff represents a difference in node counts between original and formatted AST
type NodeCountDiff struct {
	Kind      parser.NodeKind
	Original  int
	Formatted int
}

func countNodeKinds(root parser.Node) map[parser.NodeKind]int {
	counts := make(map[parser.NodeKind]int)
	parser.Inspect(root, func(n parser.Node) bool {
		counts[n.Kind()]++
		return true
	})
	return counts
}

func compareNodeCounts(orig, formatted map[parser.NodeKind]int) []NodeCountDiff {
	kinds := make(map[parser.NodeKind]bool)
	for k := range orig {
		kinds[k] = true
	}
	for k := range formatted {
		kinds[k] = true
	}

	var diffs []NodeCountDiff
	for k := range kinds {
		if orig[k] != formatted[k] {
			diffs = append(diffs, NodeCountDiff{Kind: k, Original: orig[k], Formatted: formatted[k]})
		}
	}
	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i].Kind < diffs[j].Kind
	})
	return diffs
}

func formatDiffs(diffs []NodeCountDiff) string {
	var sb strings.Builder
	for _, d := range diffs {
		sb.WriteString(fmt.Sprintf("  %s: %d -> %d\n", d.Kind, d.Original, d.Formatted))
	}
	return sb.String()
}
