package runner

import (
	"path/filepath"
	"strings"
)

// Family captures how a source file turns into something runnable, the
// three shapes gulag's BinaryMixin/BytecodeMixin/ScriptMixin describe:
// compiled native binary, compiled bytecode artifact, or an interpreted
// script run in place.
type Family interface {
	// NeedsCompile reports whether Session.Compile should invoke a
	// compiler at all.
	NeedsCompile() bool
	// TargetFilename returns the name of the runnable artifact inside the
	// sandbox directory, given the submitted source's filename.
	TargetFilename(sourceFilename string) string
	// RunArgs returns the argv used to execute the artifact, relative to
	// the sandbox working directory.
	RunArgs(sourceFilename string) []string
}

// Binary is a compiled native executable, e.g. C/C++ via gcc/g++.
type Binary struct {
	// ExecutablePath is the compiler's output filename, conventionally
	// "a.out".
	ExecutablePath string
}

func (b Binary) NeedsCompile() bool { return true }

func (b Binary) TargetFilename(string) string { return b.ExecutablePath }

func (b Binary) RunArgs(string) []string { return []string{"./" + b.ExecutablePath} }

// Bytecode is a compiled non-native artifact, e.g. Java .class or
// Python .pyc, named by replacing the source extension with Ext and run
// through Interpreter. Which interpreter belongs to which language is a
// caller concern (the invocation-template lookup table is out of scope
// here); Bytecode only knows how to splice a prefix onto a filename.
type Bytecode struct {
	Ext         string
	Interpreter []string
}

func (b Bytecode) NeedsCompile() bool { return true }

func (b Bytecode) TargetFilename(sourceFilename string) string {
	stem := strings.TrimSuffix(sourceFilename, filepath.Ext(sourceFilename))
	return stem + b.Ext
}

func (b Bytecode) RunArgs(sourceFilename string) []string {
	return append(append([]string{}, b.Interpreter...), b.TargetFilename(sourceFilename))
}

// Script is an interpreted source file run in place through Interpreter,
// with no compile step.
type Script struct {
	Interpreter []string
}

func (Script) NeedsCompile() bool { return false }

func (Script) TargetFilename(sourceFilename string) string { return sourceFilename }

func (s Script) RunArgs(sourceFilename string) []string {
	if len(s.Interpreter) == 0 {
		// No interpreter: the file is expected to be directly executable
		// (a shebang script), which exec needs a path-qualified name for.
		return []string{"./" + sourceFilename}
	}
	return append(append([]string{}, s.Interpreter...), sourceFilename)
}
