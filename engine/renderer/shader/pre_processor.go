// pre_processor.go implements the textual #include pass run over shader source before
// compilation. Includes are expanded in place, recursively, up to a bounded depth.
package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Carmen-Shannon/prism/engine/errs"
)

// DefaultMaxIncludeDepth is the deepest #include nesting accepted by default.
const DefaultMaxIncludeDepth = 5

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	fsys     fs.FS
	maxDepth int
}

// PreProcessor expands #include directives in shader source read from a file system
// rooted at the shaders directory.
type PreProcessor interface {
	// Process reads the named file and returns its source with every #include
	// directive replaced by the included file's processed content.
	//
	// Parameters:
	//   - name: the slash-separated path of the file relative to the shaders root
	//
	// Returns:
	//   - string: the expanded source
	//   - []string: non-fatal warnings (repeated or empty includes)
	//   - error: ErrNotFound for missing files, ErrIncludeDepthExceeded for over-deep nesting
	Process(name string) (string, []string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor reading from fsys.
//
// Parameters:
//   - fsys: the file system rooted at the shaders directory
//   - maxDepth: the deepest accepted include nesting (values <= 0 select DefaultMaxIncludeDepth)
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(fsys fs.FS, maxDepth int) PreProcessor {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxIncludeDepth
	}
	return &preProcessor{fsys: fsys, maxDepth: maxDepth}
}

func (p *preProcessor) Process(name string) (string, []string, error) {
	u := &unit{seen: make(map[string]int)}
	out, err := p.expand(u, path.Clean(name), []string{path.Clean(name)})
	if err != nil {
		return "", nil, err
	}
	for file, n := range u.seen {
		if n > 1 {
			u.warnings = append(u.warnings, fmt.Sprintf("%s included %d times into %s", file, n, name))
		}
	}
	return out, u.warnings, nil
}

// unit tracks the state of one top-level Process call.
type unit struct {
	seen     map[string]int
	warnings []string
}

// expand reads file and expands its includes. chain holds the include stack from the
// top-level file down to file; its length minus one is the current include depth.
func (p *preProcessor) expand(u *unit, file string, chain []string) (string, error) {
	data, err := p.read(file)
	if err != nil {
		return "", err
	}
	if len(chain) > 1 && strings.TrimSpace(data) == "" {
		u.warnings = append(u.warnings, fmt.Sprintf("%s is empty (included from %s)", file, chain[len(chain)-2]))
	}

	lines := strings.Split(data, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		target, relative, ok := parseInclude(line)
		if !ok {
			out = append(out, line)
			continue
		}

		resolved := path.Clean(target)
		if relative {
			resolved = path.Join(path.Dir(file), target)
		}

		depth := len(chain)
		if depth > p.maxDepth {
			return "", fmt.Errorf("%w: #include of: %s in: %s exceeded max include depth (%d) [%s]",
				errs.ErrIncludeDepthExceeded, target, file, p.maxDepth, strings.Join(append(chain, resolved), " -> "))
		}

		u.seen[resolved]++
		included, err := p.expand(u, resolved, append(chain[:len(chain):len(chain)], resolved))
		if err != nil {
			return "", err
		}
		out = append(out, included)
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) read(file string) (string, error) {
	if !fs.ValidPath(file) {
		return "", fmt.Errorf("%w: shader path %q escapes the shaders root", errs.ErrNotFound, file)
	}
	data, err := fs.ReadFile(p.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: shader %q: %v", errs.ErrNotFound, file, err)
		}
		return "", fmt.Errorf("%w: read shader %q: %v", errs.ErrNotFound, file, err)
	}
	return string(data), nil
}
