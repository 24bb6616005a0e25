package converter

import (
	"strings"

	"github.com/backmassage/hdrbatch/internal/config"
)

// Invocation is one converter command line.
type Invocation struct {
	Path string   // Converter executable.
	Args []string // Input file, output dir, then extra args.
}

// Build constructs the invocation for one file. Extra args are appended
// after the two positional arguments, verbatim and in order.
func Build(converterPath, inputPath, outputDir string, extra []string) Invocation {
	args := make([]string, 0, 2+len(extra))
	args = append(args, inputPath, outputDir)
	args = append(args, extra...)
	return Invocation{Path: converterPath, Args: args}
}

// Argv returns the full command line including the executable.
func (inv Invocation) Argv() []string {
	return append([]string{inv.Path}, inv.Args...)
}

// String renders the command line for logs.
func (inv Invocation) String() string {
	return strings.Join(inv.Argv(), " ")
}

// Converter options that consume the following argument.
var valueOptions = map[string]bool{
	"-q": true, // quality
	"-c": true, // color space
	"-d": true, // color depth
	"-f": true, // export format
}

// OutputExtension returns the extension the converter writes for the given
// extra args: ".jpg" when "-f" selects JPEG, otherwise
// [config.OutputExtension].
func OutputExtension(extra []string) string {
	ext := config.OutputExtension
	for i := 0; i < len(extra); i++ {
		opt := extra[i]
		if !valueOptions[opt] || i+1 >= len(extra) {
			continue
		}
		i++
		if opt != "-f" {
			continue
		}
		switch extra[i] {
		case "jpg", "j", "jpeg":
			ext = ".jpg"
		case "heic", "h", "heif":
			ext = config.OutputExtension
		}
	}
	return ext
}
