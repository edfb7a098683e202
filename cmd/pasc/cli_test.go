package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// binaryPath builds the pasc binary into a fresh temporary directory on
// every call and returns its path.
func binaryPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "pasc")
	build := exec.Command("go", "build", "-o", bin, ".")
	out, err := build.CombinedOutput()
	if err != nil {
		t.Fatalf("building pasc: %v\n%s", err, out)
	}
	return bin
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

const helloProgram = `program Hello;
begin
  WriteLn('Hello, world!');
end.
`

func TestRunInterpreterHelloWorld(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	script := writeFile(t, dir, "hello.pas", helloProgram)

	cmd := exec.Command(bin, "run", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "Hello, world!") {
		t.Errorf("expected greeting in output, got:\n%s", out)
	}
}

func TestRunVMHelloWorld(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	script := writeFile(t, dir, "hello.pas", helloProgram)

	cmd := exec.Command(bin, "run", "--vm", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run --vm failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "Hello, world!") {
		t.Errorf("expected greeting in output, got:\n%s", out)
	}
}

func TestRunReportsParseError(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	script := writeFile(t, dir, "bad.pas", "program Bad;\nbegin\n  x := ;\nend.\n")

	cmd := exec.Command(bin, "run", script)
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected a nonzero exit code, output:\n%s", out)
	}
}

func TestCompileThenDisasm(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	script := writeFile(t, dir, "hello.pas", helloProgram)
	pbc := filepath.Join(dir, "hello.pbc")

	compile := exec.Command(bin, "compile", script, "-o", pbc)
	if out, err := compile.CombinedOutput(); err != nil {
		t.Fatalf("compile failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(pbc); err != nil {
		t.Fatalf("expected %s to exist: %v", pbc, err)
	}

	disasm := exec.Command(bin, "disasm", pbc)
	out, err := disasm.CombinedOutput()
	if err != nil {
		t.Fatalf("disasm failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "HALT") {
		t.Errorf("expected disassembly to mention a halt instruction, got:\n%s", out)
	}
}

func TestCompileDefaultOutputExtension(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	script := writeFile(t, dir, "hello.pas", helloProgram)

	compile := exec.Command(bin, "compile", script)
	compile.Dir = dir
	if out, err := compile.CombinedOutput(); err != nil {
		t.Fatalf("compile failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(dir, "hello.pbc")); err != nil {
		t.Errorf("expected hello.pbc next to the source: %v", err)
	}
}

const mathUnit = `unit MathUtils;

interface

function Double(n: Integer): Integer;

implementation

function Double(n: Integer): Integer;
begin
  Double := n * 2;
end;

end.
`

const usesMathProgram = `program UsesMath;
uses MathUtils;
begin
  WriteLn(Double(21));
end.
`

func TestRunInterpreterWithUsedUnit(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	writeFile(t, dir, "MathUtils.pas", mathUnit)
	script := writeFile(t, dir, "main.pas", usesMathProgram)

	cmd := exec.Command(bin, "run", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "42") {
		t.Errorf("expected 42 in output, got:\n%s", out)
	}
}

func TestRunVMWithUsedUnit(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	writeFile(t, dir, "MathUtils.pas", mathUnit)
	script := writeFile(t, dir, "main.pas", usesMathProgram)

	cmd := exec.Command(bin, "run", "--vm", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run --vm failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "42") {
		t.Errorf("expected 42 in output, got:\n%s", out)
	}
}

func TestCompileUnitThenDisasm(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	unit := writeFile(t, dir, "MathUtils.pas", mathUnit)
	pbu := filepath.Join(dir, "MathUtils.pbu")

	compile := exec.Command(bin, "compile-unit", unit, "-o", pbu)
	if out, err := compile.CombinedOutput(); err != nil {
		t.Fatalf("compile-unit failed: %v\n%s", err, out)
	}

	disasm := exec.Command(bin, "disasm", pbu)
	out, err := disasm.CombinedOutput()
	if err != nil {
		t.Fatalf("disasm failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "Double") {
		t.Errorf("expected disassembly to mention Double, got:\n%s", out)
	}
}

func TestRunSearchPathFallback(t *testing.T) {
	bin := binaryPath(t)
	progDir := t.TempDir()
	unitDir := t.TempDir()
	writeFile(t, unitDir, "MathUtils.pas", mathUnit)
	script := writeFile(t, progDir, "main.pas", usesMathProgram)

	cmd := exec.Command(bin, "run", "--search-path", unitDir, script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "42") {
		t.Errorf("expected 42 in output, got:\n%s", out)
	}
}

func TestRunMissingUnitIsFatal(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	script := writeFile(t, dir, "main.pas", usesMathProgram)

	cmd := exec.Command(bin, "run", script)
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected a nonzero exit code for a missing unit, output:\n%s", out)
	}
}

func TestRunDebugPrintsUnitTree(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	writeFile(t, dir, "MathUtils.pas", mathUnit)
	script := writeFile(t, dir, "main.pas", usesMathProgram)

	cmd := exec.Command(bin, "run", "--debug", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run --debug failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "MathUtils") {
		t.Errorf("expected the unit dependency tree to mention MathUtils, got:\n%s", out)
	}
}
