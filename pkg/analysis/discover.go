package analysis

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/src-d/enry/v2"
)

const (
	languagePython = "Python"

	// shebangProbeSize is how much of an extensionless file is read to
	// detect a Python shebang.
	shebangProbeSize = 256
)

// ErrNoSuchPath reports an analysis root that does not exist.
var ErrNoSuchPath = errors.New("no such file or directory")

// DiscoverOptions filters the files Discover returns.
type DiscoverOptions struct {
	// Exclude holds glob patterns matched against slash-separated paths
	// relative to the root and against base names.
	Exclude []string
	// IncludeVendor keeps vendored directories such as site-packages.
	IncludeVendor bool
}

// Discover returns the Python files under root in lexical order. A root
// naming a file is returned as is. Hidden entries and, unless included,
// vendored directories are skipped.
func Discover(root string, opts DiscoverOptions) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchPath, root)
		}

		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		skip, skipErr := shouldSkip(root, path, entry, walkErr, opts)
		if skip || skipErr != nil {
			return skipErr
		}

		files = append(files, path)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return files, nil
}

// shouldSkip decides whether a walk entry is left out; directories are
// never returned themselves.
func shouldSkip(root, path string, entry fs.DirEntry, walkErr error, opts DiscoverOptions) (bool, error) {
	if walkErr != nil {
		if errors.Is(walkErr, fs.ErrPermission) || errors.Is(walkErr, fs.ErrNotExist) {
			if entry != nil && entry.IsDir() {
				return true, filepath.SkipDir
			}

			return true, nil
		}

		return false, walkErr
	}

	if entry == nil {
		return true, nil
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true, nil //nolint:nilerr // unrelatable paths are skipped
	}

	rel = filepath.ToSlash(rel)

	if entry.IsDir() {
		if rel == "." {
			return true, nil
		}

		if enry.IsDotFile(rel) || excluded(rel, opts.Exclude) || (!opts.IncludeVendor && enry.IsVendor(rel+"/")) {
			return true, filepath.SkipDir
		}

		return true, nil
	}

	if !entry.Type().IsRegular() || enry.IsDotFile(rel) || excluded(rel, opts.Exclude) {
		return true, nil
	}

	if !opts.IncludeVendor && enry.IsVendor(rel) {
		return true, nil
	}

	return !IsPython(path), nil
}

// IsPython reports whether path holds Python source, by extension or, for
// extensionless scripts, by shebang.
func IsPython(path string) bool {
	base := filepath.Base(path)

	if filepath.Ext(base) != "" {
		return enry.GetLanguage(base, nil) == languagePython
	}

	head, err := readHead(path, shebangProbeSize)
	if err != nil || enry.IsBinary(head) {
		return false
	}

	return slices.Contains(enry.GetLanguagesByShebang(base, head, nil), languagePython)
}

func readHead(path string, size int) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	head := make([]byte, size)

	read, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return head[:read], nil
}

func excluded(rel string, patterns []string) bool {
	base := filepath.Base(rel)

	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}

		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
