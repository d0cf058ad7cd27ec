package supervisor

import (
	"io"

	"golang.org/x/sys/unix"

	"judgecore/verdict"
)

// fdKind tags each descriptor a Process's poll loop watches, so a single
// poll(2) call can dispatch to the right handler without per-fd closures.
type fdKind int

const (
	fdSignal fdKind = iota
	fdStdoutCapture
	fdStdoutCompare
	fdStderrCapture
)

type watchedFD struct {
	fd   int
	kind fdKind
}

const readChunk = 4096

// handleCapture appends up to readChunk bytes from fd to dst, returning
// done=true once the writer side has closed (EOF).
func handleCapture(fd int, dst *[]byte) (done bool, err error) {
	buf := make([]byte, readChunk)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return true, nil
	}
	*dst = append(*dst, buf[:n]...)
	return false, nil
}

// handleCompare reads up to readChunk bytes of actual stdout and compares
// them against the next bytes of the expected reader. A short read against
// remaining expected bytes, a mismatch, or leftover expected bytes once
// actual output ends all set WA.
func handleCompare(fd int, expected io.ReadSeeker, v *verdict.Cell) (done bool, kill bool, err error) {
	buf := make([]byte, readChunk)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return false, false, err
	}
	if n == 0 {
		cur, _ := expected.Seek(0, io.SeekCurrent)
		end, _ := expected.Seek(0, io.SeekEnd)
		if cur != end {
			v.Set(verdict.WA)
		}
		return true, false, nil
	}

	want := make([]byte, n)
	wn, _ := io.ReadFull(expected, want)
	if wn != n || string(want[:wn]) != string(buf[:n]) {
		v.Set(verdict.WA)
		return true, true, nil
	}
	return false, false, nil
}
