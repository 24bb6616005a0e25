package pipeline

import "fmt"

// DirectoryNotFoundError is returned when the target path does not refer to
// an existing directory.
type DirectoryNotFoundError struct {
	Path string
	Err  error // Underlying stat error; nil when the path is not a directory.
}

func (e *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf("directory %s does not exist", e.Path)
}

func (e *DirectoryNotFoundError) Unwrap() error { return e.Err }

// NoInputFilesError is returned when the target directory holds no file
// with the input extension.
type NoInputFilesError struct {
	Dir string
	Ext string
}

func (e *NoInputFilesError) Error() string {
	return fmt.Sprintf("no %s files found in the directory %s", e.Ext, e.Dir)
}
