package cnext

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// generatedMarker is the distinctive comment C-Next stamps onto the
// first non-blank line of every header it emits, so a later
// compilation recognizes and skips it during header symbol
// collection (§6). The "src=" form additionally carries the
// originating .cnx path, enabling C-entrypoint discovery.
const generatedMarkerPrefix = "/* cnext:generated"

// GeneratedHeaderInfo is what IsGeneratedHeader reports about a
// header's marker comment.
type GeneratedHeaderInfo struct {
	IsGenerated bool
	SourcePath  string // "" if the marker didn't carry a src= path
}

func GeneratedMarker(sourcePath string) string {
	if sourcePath == "" {
		return generatedMarkerPrefix + " */"
	}
	return fmt.Sprintf("%s src=%s */", generatedMarkerPrefix, sourcePath)
}

var generatedMarkerSrcRe = regexp.MustCompile(`src=(\S+)\s*\*/`)

// IsGeneratedHeader inspects the first non-blank line of content and
// reports whether it carries the C-Next generation marker.
func IsGeneratedHeader(content []byte) GeneratedHeaderInfo {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, generatedMarkerPrefix) {
			return GeneratedHeaderInfo{}
		}
		if m := generatedMarkerSrcRe.FindStringSubmatch(line); m != nil {
			return GeneratedHeaderInfo{IsGenerated: true, SourcePath: m[1]}
		}
		return GeneratedHeaderInfo{IsGenerated: true}
	}
	return GeneratedHeaderInfo{}
}

// RawInclude is one `#include` directive extracted from source text,
// before resolution against the search-path list.
type RawInclude struct {
	Path     string
	IsSystem bool
	Line     int
}

var includeRe = regexp.MustCompile(`^\s*#\s*include\s*([<"])([^>"]+)[>"]`)

// ExtractIncludes scans source content line by line for `#include`
// directives, classifying `<...>` as system and `"..."` as local,
// per §4.1.
func ExtractIncludes(content []byte) []RawInclude {
	var out []RawInclude
	scanner := bufio.NewScanner(bytes.NewReader(content))
	line := 0
	for scanner.Scan() {
		line++
		if m := includeRe.FindStringSubmatch(scanner.Text()); m != nil {
			out = append(out, RawInclude{
				Path:     m[2],
				IsSystem: m[1] == "<",
				Line:     line,
			})
		}
	}
	return out
}

// IncludeResolver resolves #include directives against a prioritized
// list of search paths: source dir, CLI include dirs, config dirs,
// and project-common include/src/lib (§4.1). Local ("...") includes
// that can't be resolved are reported as warnings tied to the
// referencing file; unresolved system (<...>) includes are silent.
type IncludeResolver struct {
	fs          FileSystem
	searchPaths []string
	sink        *DiagnosticSink
}

func NewIncludeResolver(fs FileSystem, searchPaths []string, sink *DiagnosticSink) *IncludeResolver {
	return &IncludeResolver{fs: fs, searchPaths: searchPaths, sink: sink}
}

// SearchPathsFor builds the prioritized search-path list for a file
// living in sourceDir: the source directory first, then the
// resolver's configured dirs (CLI --include, config dirs), then the
// project-common conventions.
func SearchPathsFor(sourceDir string, configured []string) []string {
	paths := []string{sourceDir}
	paths = append(paths, configured...)
	for _, common := range []string{"include", "src", "lib"} {
		paths = append(paths, filepath.Join(sourceDir, common))
	}
	return paths
}

// Resolve finds the absolute path for a local or system include. It
// first tries paths relative to the referencing file's own directory
// (for local includes), then walks the resolver's search-path list.
func (r *IncludeResolver) Resolve(referencingFile string, inc RawInclude) (string, bool) {
	candidates := SearchPathsFor(filepath.Dir(referencingFile), r.searchPaths)
	for _, dir := range candidates {
		candidate := filepath.Join(dir, inc.Path)
		if r.fs.IsFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// ResolveAll extracts and resolves every include in content, reporting
// a warning for each unresolved local include (unresolved system
// includes stay silent per §4.1).
func (r *IncludeResolver) ResolveAll(referencingFile string, content []byte) []string {
	var resolved []string
	for _, inc := range ExtractIncludes(content) {
		path, ok := r.Resolve(referencingFile, inc)
		if !ok {
			if !inc.IsSystem && r.sink != nil {
				r.sink.ReportWarning(referencingFile, WarnUnresolvedLocalInclude,
					SourceLocation{}, "unresolved local include %q referenced from %s", inc.Path, referencingFile)
			}
			continue
		}
		resolved = append(resolved, path)
	}
	return resolved
}
