package cnext

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pipeline coordinates the full compile: discover includes, parse
// every file, collect symbols across the whole dependency graph, then
// generate each file's .c/.h pair. Parsing and generation are
// independent per file, so both stages fan out across a bounded worker
// pool with golang.org/x/sync's errgroup+semaphore — the dependency
// graph's batches (depgraph.go's OrderBatches) gate generation so a
// file is never generated before every file it depends on has finished
// symbol collection (§5's "barrier").
type Pipeline struct {
	fs              FileSystem
	cfg             *Config
	sink            *DiagnosticSink
	maxInFlight     int64
	extraIncludes   []string
}

func NewPipeline(fs FileSystem, cfg *Config, sink *DiagnosticSink, extraIncludes ...string) *Pipeline {
	return &Pipeline{fs: fs, cfg: cfg, sink: sink, maxInFlight: 8, extraIncludes: extraIncludes}
}

// CompileResult maps every output path (.c and .h) to its generated
// content, for the caller (cmd/cnextc or a test) to flush through a
// FileSystem or inspect directly.
type CompileResult struct {
	Sources map[string]string
	Headers map[string]string
}

// Compile runs the full pipeline over entryFiles (and everything they
// transitively #include).
func (p *Pipeline) Compile(ctx context.Context, entryFiles []string) (*CompileResult, error) {
	order, graph, contents, li, err := p.discover(entryFiles)
	if err != nil {
		return nil, err
	}

	parsed, err := p.parseAll(ctx, order, contents)
	if err != nil {
		return nil, err
	}

	syms, err := p.collectSymbols(order, parsed, contents, li)
	if err != nil {
		return nil, err
	}

	return p.generateAll(ctx, graph, parsed, syms)
}

// mergeNativeHeaders runs the header parser (header_parser.go) over
// every discovered file that isn't .cnx/.cnext source, so a .cnx file
// that #includes a plain C header can still reference that header's
// struct/enum/typedef names without tripping unknown-type.
func (p *Pipeline) mergeNativeHeaders(order []string, contents map[string][]byte, syms *CodeGenSymbols) {
	for _, path := range order {
		if isCnxSource(path) {
			continue
		}
		syms.MergeNativeSymbols(ParseNativeHeader(contents[path]))
	}
}

// isCnxSource reports whether path is a C-Next source file (as opposed
// to a native C/C++ header reached through #include, which the header
// parser handles instead of the .cnx parser, §4.3/§6).
func isCnxSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".cnx" || ext == ".cnext"
}

// discover walks #include edges from entryFiles, building the
// dependency graph and reading every reachable file's content exactly
// once.
func (p *Pipeline) discover(entryFiles []string) ([]string, *DependencyGraph, map[string][]byte, map[FileID]*LineIndex, error) {
	graph := NewDependencyGraph()
	contents := map[string][]byte{}
	var order []string
	visited := map[string]bool{}

	resolver := NewIncludeResolver(p.fs, SearchPathsFor(p.cfg.GetString("codegen.base_path"), p.extraIncludes), p.sink)

	var discoverFile func(path string) error
	discoverFile = func(path string) error {
		if visited[path] {
			return nil
		}
		visited[path] = true
		graph.AddNode(path)

		content, err := p.fs.ReadFile(path)
		if err != nil {
			return err
		}
		contents[path] = content

		for _, inc := range resolver.ResolveAll(path, content) {
			graph.AddEdge(path, inc)
			if err := discoverFile(inc); err != nil {
				return err
			}
		}
		order = append(order, path)
		return nil
	}

	for _, f := range entryFiles {
		if err := discoverFile(f); err != nil {
			return nil, nil, nil, nil, err
		}
	}

	// FileIDs are assigned by position in `order` (not discovery order)
	// so they agree with collectSymbols, which indexes the same slice.
	li := make(map[FileID]*LineIndex, len(order))
	for i, path := range order {
		li[FileID(i)] = NewLineIndex(contents[path])
	}
	return order, graph, contents, li, nil
}

// parseAll parses every discovered file concurrently; parsing one file
// touches nothing another file's parse touches, so there's no barrier
// to respect here.
func (p *Pipeline) parseAll(ctx context.Context, order []string, contents map[string][]byte) (map[string]*FileNode, error) {
	var mu sync.Mutex
	parsed := make(map[string]*FileNode, len(order))

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(p.maxInFlight)
	for _, path := range order {
		path := path
		if !isCnxSource(path) {
			continue
		}
		if err := sem.Acquire(gctx, 1); err != nil {
			return nil, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			file, err := ParseSource(string(contents[path]))
			if err != nil {
				if ce, ok := err.(*CompileError); ok {
					p.sink.ReportError(path, ce)
					return nil
				}
				return err
			}
			mu.Lock()
			parsed[path] = file
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// collectSymbols walks every parsed file in dependency order (batches
// are processed in order, though collection itself is cheap enough to
// run sequentially within a batch — it's generation, not collection,
// that benefits from the worker pool) and resolves forward references
// once every file has contributed its declarations.
func (p *Pipeline) collectSymbols(order []string, parsed map[string]*FileNode, contents map[string][]byte, li map[FileID]*LineIndex) (*CodeGenSymbols, error) {
	sc := NewSymbolCollector(p.sink, li)
	fileIDs := map[string]FileID{}
	for i, path := range order {
		fileIDs[path] = FileID(i)
	}
	for _, path := range order {
		file, ok := parsed[path]
		if !ok {
			continue
		}
		if err := sc.CollectFile(fileIDs[path], file); err != nil {
			return nil, err
		}
	}
	p.mergeNativeHeaders(order, contents, sc.Symbols())
	sc.ResolvePending()
	return sc.Symbols(), nil
}

// generateAll produces the .c/.h pair for every file, processing
// dependency batches in order and generating every file within a batch
// concurrently (the dependency-respecting parallel stage).
func (p *Pipeline) generateAll(ctx context.Context, graph *DependencyGraph, parsed map[string]*FileNode, syms *CodeGenSymbols) (*CompileResult, error) {
	batches, warnings := graph.OrderBatches()
	for _, w := range warnings {
		p.sink.ReportWarning("", WarnCircularInclude, SourceLocation{}, "%s", w)
	}

	result := &CompileResult{Sources: map[string]string{}, Headers: map[string]string{}}
	var mu sync.Mutex

	opt := CodeGenOptions{
		Cpp:          p.cfg.GetBool("codegen.cpp"),
		Target:       ResolveTarget(p.cfg.GetString("codegen.target")),
		CacheStrlen:  p.cfg.GetBool("codegen.cache_strlen"),
		SynthDefault: p.cfg.GetBool("codegen.synthesize_default_case"),
	}

	for _, batch := range batches {
		g, gctx := errgroup.WithContext(ctx)
		sem := semaphore.NewWeighted(p.maxInFlight)
		for _, path := range batch {
			path := path
			file, ok := parsed[path]
			if !ok {
				continue
			}
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil, err
			}
			g.Go(func() error {
				defer sem.Release(1)

				fileOpt := opt
				fileOpt.SourcePath = path

				cg := NewCodeGenerator(fileOpt, syms, p.sink)
				src, err := cg.Generate(file)
				if err != nil {
					return err
				}
				hg := NewHeaderGenerator(fileOpt, syms)
				hdr, err := hg.Generate(file)
				if err != nil {
					return err
				}

				mu.Lock()
				result.Sources[outputSourcePath(p.cfg, path, fileOpt.Cpp)] = src
				result.Headers[outputHeaderPath(p.cfg, path)] = hdr
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func outputSourcePath(cfg *Config, sourcePath string, cpp bool) string {
	ext := ".c"
	if cpp {
		ext = ".cpp"
	}
	base := trimExt(filepath.Base(sourcePath)) + ext
	if dir := cfg.GetString("codegen.out_dir"); dir != "" {
		return filepath.Join(dir, base)
	}
	return filepath.Join(filepath.Dir(sourcePath), base)
}

func outputHeaderPath(cfg *Config, sourcePath string) string {
	base := trimExt(filepath.Base(sourcePath)) + ".h"
	if dir := cfg.GetString("codegen.header_out_dir"); dir != "" {
		return filepath.Join(dir, base)
	}
	return filepath.Join(filepath.Dir(sourcePath), base)
}

// WriteAll flushes a CompileResult to disk (or an InMemoryFileSystem in
// tests) through the pipeline's FileSystem adapter, sources first then
// headers, in sorted order for deterministic logging.
func (p *Pipeline) WriteAll(result *CompileResult) error {
	for _, path := range sortedKeys(result.Sources) {
		if err := p.fs.WriteFile(path, []byte(result.Sources[path])); err != nil {
			return err
		}
	}
	for _, path := range sortedKeys(result.Headers) {
		if err := p.fs.WriteFile(path, []byte(result.Headers[path])); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
