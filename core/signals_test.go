//go:build unix

package core

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

// TestSignalSet_Membership verifies Add, Del and Has
func TestSignalSet_Membership(t *testing.T) {
	set := NewSignalSet(unix.SIGUSR1, PreemptSignal)

	if !set.Has(unix.SIGUSR1) || !set.Has(PreemptSignal) {
		t.Fatalf("set %v missing members", set)
	}
	if set.Has(unix.SIGUSR2) {
		t.Errorf("set %v has SIGUSR2", set)
	}

	set = set.Del(unix.SIGUSR1).Add(unix.SIGINT)
	if set.Has(unix.SIGUSR1) {
		t.Errorf("SIGUSR1 still present after Del")
	}
	if !set.Has(unix.SIGINT) {
		t.Errorf("SIGINT missing after Add")
	}
	if NewSignalSet().Add(0).Add(65) != 0 {
		t.Errorf("out-of-range signals should be ignored")
	}
}

// TestMaskHow_Apply verifies block, unblock and set semantics
func TestMaskHow_Apply(t *testing.T) {
	current := NewSignalSet(unix.SIGUSR1)
	set := NewSignalSet(unix.SIGUSR2, unix.SIGUSR1)

	tests := []struct {
		name string
		how  MaskHow
		want SignalSet
	}{
		{"block", SigBlock, NewSignalSet(unix.SIGUSR1, unix.SIGUSR2)},
		{"unblock", SigUnblock, NewSignalSet()},
		{"setmask", SigSetMask, set},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.how.apply(current, set); got != tt.want {
				t.Errorf("apply = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestParseSignal verifies the accepted spellings
func TestParseSignal(t *testing.T) {
	tests := []struct {
		in      string
		want    unix.Signal
		wantErr bool
	}{
		{"SIGUSR1", unix.SIGUSR1, false},
		{"usr2", unix.SIGUSR2, false},
		{"vtalrm", unix.SIGVTALRM, false},
		{"10", unix.Signal(10), false},
		{"", 0, true},
		{"nope", 0, true},
		{"99", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSignal(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSignal(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSignal(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestSignalSet_String(t *testing.T) {
	if got := NewSignalSet().String(); got != "{}" {
		t.Errorf("empty String() = %q, want {}", got)
	}
	if got := NewSignalSet(unix.SIGUSR2, unix.SIGINT).String(); got != "{SIGINT,SIGUSR2}" {
		t.Errorf("String() = %q, want {SIGINT,SIGUSR2}", got)
	}
}

// TestPackage_UnixOnly verifies every source file is limited to unix builds,
// since signal sets are numbered by golang.org/x/sys/unix
func TestPackage_UnixOnly(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			t.Fatal(err)
		}
		first, _, _ := strings.Cut(string(data), "\n")
		if !strings.HasPrefix(first, "//go:build ") {
			t.Errorf("%s: first line = %q, want a build constraint", name, first)
			continue
		}
		if expr := strings.TrimPrefix(first, "//go:build "); expr != "linux" && !strings.HasPrefix(expr, "unix") {
			t.Errorf("%s: constraint %q does not imply unix", name, expr)
		}
	}
}

// TestSignalSet_MethodsDocumented verifies the exported SignalSet and Thread
// methods carry doc comments; String is exempt as a fmt.Stringer
func TestSignalSet_MethodsDocumented(t *testing.T) {
	fset := token.NewFileSet()
	for _, name := range []string{"signals.go", "thread.go"} {
		file, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		if err != nil {
			t.Fatal(err)
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || !fn.Name.IsExported() || fn.Name.Name == "String" {
				continue
			}
			if fn.Doc == nil {
				t.Errorf("%s: %s has no doc comment", fset.Position(fn.Pos()), fn.Name.Name)
			}
		}
	}
}
