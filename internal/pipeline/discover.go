package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/backmassage/hdrbatch/internal/config"
)

// InputFile is one dispatchable entry of the target directory.
type InputFile struct {
	Name string
	Size int64
}

// Discover lists dir's immediate entries (no recursion), keeps non-directory
// entries (symlinks are resolved) whose name ends with ".tif" (case-sensitive), and returns them
// sorted by name for deterministic dispatch order.
//
// It returns *DirectoryNotFoundError when dir is missing or not a directory
// and *NoInputFilesError when nothing matches.
func Discover(dir string) ([]InputFile, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, &DirectoryNotFoundError{Path: dir, Err: err}
	}
	if !fi.IsDir() {
		return nil, &DirectoryNotFoundError{Path: dir}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []InputFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), config.InputExtension) {
			continue
		}
		f := InputFile{Name: e.Name()}
		if e.Type()&fs.ModeSymlink != 0 {
			// Follow the link; a link to a directory is still a directory.
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err == nil && info.IsDir() {
				continue
			}
			if err == nil {
				f.Size = info.Size()
			}
		} else if info, err := e.Info(); err == nil {
			f.Size = info.Size()
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, &NoInputFilesError{Dir: dir, Ext: config.InputExtension}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
