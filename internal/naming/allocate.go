package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxAttempts bounds the collision scan.
const maxAttempts = 10000

// ErrExhausted is returned when every candidate up to maxAttempts is taken.
var ErrExhausted = errors.New("no free filename")

// Allocator picks non-colliding destination paths inside one output directory.
//
// Allocation is check-then-act: a file created between Allocate and the
// caller's rename is not detected. The daemon runs a single worker, so only
// outside writers can race.
type Allocator struct {
	dir  string
	stat func(string) (os.FileInfo, error)
}

// NewAllocator returns an allocator for outputDir.
func NewAllocator(outputDir string) *Allocator {
	return &Allocator{dir: outputDir, stat: os.Lstat}
}

// Dir returns the output directory.
func (a *Allocator) Dir() string {
	return a.dir
}

// Allocate returns the first free path among "{date} {name}{ext}",
// "{date} {name} 1{ext}", "{date} {name} 2{ext}", and so on.
func (a *Allocator) Allocate(date, name, ext string) (string, error) {
	for n := 0; n < maxAttempts; n++ {
		candidate := filepath.Join(a.dir, Compose(date, name, ext, n))
		_, err := a.stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check %q: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("%w for %q in %s", ErrExhausted, Compose(date, name, ext, 0), a.dir)
}

// Compose builds the n-th candidate filename. n == 0 has no counter.
func Compose(date, name, ext string, n int) string {
	var b strings.Builder
	b.WriteString(SanitizeComponent(date))
	b.WriteByte(' ')
	b.WriteString(SanitizeComponent(name))
	if n > 0 {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(n))
	}
	b.WriteString(SanitizeComponent(ext))
	return b.String()
}

// SanitizeComponent NFC-normalizes s and replaces path separators and NUL
// with "-" so the result is always a single path element.
func SanitizeComponent(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '-'
		}
		return r
	}, s)
}
