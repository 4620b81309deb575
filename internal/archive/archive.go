// Package archive owns the on-disk layout of ingested documents and the
// collision-safe move that puts a file into its final location.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bkoehler/brokerdocs/internal/entity"
)

// Filesystem placement errors.
var (
	ErrSourceMissing = errors.New("source file does not exist")
	ErrNotRegular    = errors.New("source is not a regular file")
	ErrCollision     = errors.New("could not find a free destination name")
)

// maxSuffix bounds the _N collision loop. Hitting it means something is
// generating identical filenames pathologically fast.
const maxSuffix = 100

// Archive places documents under a per-broker tree:
//
//	<root>/<broker-slug>/<number>_<lastname>/<file>          assigned
//	<unassigned>/<broker-slug>/<file>                        unresolved
type Archive struct {
	root       string
	unassigned string
	logger     *slog.Logger
}

func New(root, unassignedRoot string, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{root: root, unassigned: unassignedRoot, logger: logger}
}

// CustomerDir returns the directory a customer's documents live in,
// creating it if needed.
func (a *Archive) CustomerDir(brokerSlug string, customer *entity.Customer) (string, error) {
	folder := sanitizeSegment(customer.Number + "_" + customer.LastName)
	dir := filepath.Join(a.root, sanitizeSegment(brokerSlug), folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create customer directory: %w", err)
	}
	return dir, nil
}

// UnassignedDir returns the broker's triage directory for documents
// without a customer, creating it if needed.
func (a *Archive) UnassignedDir(brokerSlug string) (string, error) {
	dir := filepath.Join(a.unassigned, sanitizeSegment(brokerSlug))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create unassigned directory: %w", err)
	}
	return dir, nil
}

// Place moves src into dir, keeping its base name. When the name is
// taken the stem gets a _1, _2, ... suffix; existing files are never
// overwritten. Returns the final absolute path.
func (a *Archive) Place(src, dir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return "", fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotRegular, src)
	}

	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 0; i <= maxSuffix; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		dst := filepath.Join(dir, name)

		err := moveNoReplace(src, dst)
		if err == nil {
			if i > 0 {
				a.logger.Info("destination name taken, suffixed", "file", base, "final", name)
			}
			return dst, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return "", fmt.Errorf("move %s: %w", base, err)
	}
	return "", fmt.Errorf("%w: %s in %s", ErrCollision, base, dir)
}

// moveNoReplace moves src to dst, failing with fs.ErrExist when dst is
// already present. Link+remove keeps the existence check atomic where
// rename would silently replace; cross-device moves fall back to a
// copy behind an O_EXCL create.
func moveNoReplace(src, dst string) error {
	err := os.Link(src, dst)
	if err == nil {
		return os.Remove(src)
	}
	if errors.Is(err, syscall.EXDEV) {
		if cerr := copyExcl(src, dst); cerr != nil {
			return cerr
		}
		return os.Remove(src)
	}
	return err
}

func copyExcl(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := out.ReadFrom(in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// sanitizeSegment makes a string safe as a single path element: path
// separators become underscores and control characters are dropped. An
// empty result falls back to "unknown".
func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == '/' || r == '\\' || r == os.PathSeparator:
			b.WriteRune('_')
		case r < 0x20 || r == 0x7f:
			// skip
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ". ")
	if out == "" || out == "." || out == ".." {
		return "unknown"
	}
	return out
}
