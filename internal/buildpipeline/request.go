package buildpipeline

import (
	"tether/internal/cache"
	"tether/internal/diag"
	"tether/internal/layout"
	"tether/internal/project"
	"tether/internal/signature"
)

// BuildRequest configures one build. Paths are used as given.
type BuildRequest struct {
	// TypesInput enables the types stage when set.
	TypesInput       string
	TypesBase        string
	TypesOutput      string
	RejectDuplicates bool

	// Signatures are appended after the base or typed list.
	Signatures signature.List
	// Packages is a directory of *.bin signature files.
	Packages string

	Units    []string
	OutDir   string
	Exts     string
	Annotate bool
	// Jobs bounds parallel unit compilation; 0 means GOMAXPROCS.
	Jobs int

	Target   layout.Target
	Cache    *cache.DiskCache
	Progress ProgressSink
	// Reporter receives warnings. It is called from several goroutines.
	Reporter diag.Reporter
}

// RequestFromManifest translates tether.toml into a request. The cache is
// left for the caller to open.
func RequestFromManifest(m *project.Manifest) (*BuildRequest, error) {
	units, err := m.Units()
	if err != nil {
		return nil, err
	}
	cfg := m.Config
	return &BuildRequest{
		TypesInput:       m.Abs(cfg.Types.Input),
		TypesBase:        m.Abs(cfg.Types.Base),
		TypesOutput:      m.Abs(cfg.Types.Output),
		RejectDuplicates: cfg.Types.RejectDuplicates,
		Packages:         m.Abs(cfg.Compile.Packages),
		Units:            units,
		OutDir:           m.Abs(cfg.Compile.OutDir),
		Exts:             m.Abs(cfg.Compile.Exts),
		Annotate:         cfg.Compile.Annotate,
		Jobs:             cfg.Build.Jobs,
	}, nil
}
