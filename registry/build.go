package registry

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/coffersTech/camlog/schema"
	"github.com/coffersTech/camlog/xmldoc"
)

// FetchFunc resolves a parser-contents file path to its document bytes.
// The registry never touches the filesystem or network itself; the session
// layer decides where paths point (device flash, local disk, test fixtures).
type FetchFunc func(path string) ([]byte, error)

// BuildConfig carries the optional knobs of a registry build.
type BuildConfig struct {
	// ExpectedVersions maps a source id to the firmware version its
	// parser-contents document must declare. Sources absent from the map are
	// not verified.
	ExpectedVersions map[int]string

	Logger *zap.Logger
}

// VersionMismatchError reports a parser-contents document whose declared
// version does not match the firmware's.
type VersionMismatchError struct {
	SourceName string
	Expected   string
	Actual     string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("source %s expected version %s but document version is %s",
		e.SourceName, e.Expected, e.Actual)
}

// Build constructs a Registry from a definitions document. Each referenced
// parser-contents document is fetched and extracted concurrently, one
// goroutine per source. Any failure aborts the whole build; no partial
// registry is ever returned.
func Build(definitions []byte, fetch FetchFunc, cfg BuildConfig) (*Registry, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	doc, err := xmldoc.Parse(definitions)
	if err != nil {
		return nil, err
	}
	ids, err := schema.SourceIDs(doc)
	if err != nil {
		return nil, err
	}

	schemas := make([]*SourceSchema, len(ids))
	errs := make([]error, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			s, err := loadSource(doc, id, fetch, cfg)
			if err != nil {
				errs[i] = fmt.Errorf("source %d: %w", id, err)
				return nil
			}
			schemas[i] = s
			return nil
		})
	}
	g.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}

	r := &Registry{
		sources: make(map[int]*SourceSchema, len(ids)),
		digest:  blake2b.Sum256(definitions),
	}
	for _, s := range schemas {
		if _, ok := r.sources[s.ID]; ok {
			return nil, fmt.Errorf("duplicate source id %d in definitions document", s.ID)
		}
		r.sources[s.ID] = s
		logger.Debug("loaded source schema",
			zap.Int("source_id", s.ID),
			zap.String("source_name", s.Name),
			zap.Int("events", len(s.Events)),
			zap.Int("enums", len(s.Enums)))
	}
	return r, nil
}

// loadSource builds one SourceSchema: the source's entries from the
// definitions document plus the tables of its parser-contents document and
// of any per-module events file overrides.
func loadSource(defs *xmldoc.Document, sourceID int, fetch FetchFunc, cfg BuildConfig) (*SourceSchema, error) {
	name, err := schema.SourceName(defs, sourceID)
	if err != nil {
		return nil, err
	}
	path, err := schema.SourceParserFilePath(defs, sourceID)
	if err != nil {
		return nil, err
	}
	modules, err := schema.SourceModules(defs, sourceID)
	if err != nil {
		return nil, err
	}

	s := &SourceSchema{
		ID:              sourceID,
		Name:            name,
		ParserFilePath:  path,
		ModuleVerbosity: make(map[int]schema.Verbosity, len(modules)),
		Events:          make(map[int]schema.EventDef),
		Files:           make(map[int]string),
		Modules:         make(map[int]string),
		Threads:         make(map[int]string),
		Enums:           make(map[string]schema.EnumDef),
	}
	for _, m := range modules {
		if _, ok := s.ModuleVerbosity[m.ID]; !ok {
			s.ModuleVerbosity[m.ID] = m.Verbosity
		}
	}

	// Source-level file first, then module overrides; first definition wins
	// on every table, so the source file keeps precedence.
	paths := []string{path}
	seen := map[string]bool{path: true}
	for _, m := range modules {
		if m.Path != "" && !seen[m.Path] {
			seen[m.Path] = true
			paths = append(paths, m.Path)
		}
	}

	for i, p := range paths {
		contents, err := fetch(p)
		if err != nil {
			return nil, fmt.Errorf("fetch %q: %w", p, err)
		}
		if i == 0 {
			s.Digest = blake2b.Sum256(contents)
		}
		if err := mergeParserContents(s, contents, i == 0, cfg); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func mergeParserContents(s *SourceSchema, contents []byte, primary bool, cfg BuildConfig) error {
	doc, err := xmldoc.Parse(contents)
	if err != nil {
		return err
	}

	version := schema.FormatVersion(doc)
	if primary {
		s.Version = version
	}
	if expected, ok := cfg.ExpectedVersions[s.ID]; ok && primary && expected != version {
		return &VersionMismatchError{SourceName: s.Name, Expected: expected, Actual: version}
	}

	events, err := schema.Events(doc)
	if err != nil {
		return err
	}
	files, err := schema.Files(doc)
	if err != nil {
		return err
	}
	modules, err := schema.Modules(doc)
	if err != nil {
		return err
	}
	threads, err := schema.Threads(doc)
	if err != nil {
		return err
	}
	enums, err := schema.Enums(doc)
	if err != nil {
		return err
	}

	mergeIntTable(s.Events, events)
	mergeIntTable(s.Files, files)
	mergeIntTable(s.Modules, modules)
	mergeIntTable(s.Threads, threads)
	for name, def := range enums {
		if _, ok := s.Enums[name]; !ok {
			s.Enums[name] = def
		}
	}
	return nil
}

func mergeIntTable[V any](dst, src map[int]V) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}
