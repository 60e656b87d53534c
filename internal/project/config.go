package project

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"splice/internal/inline"
	"splice/internal/trace"
)

// Config is the decoded splice.toml.
type Config struct {
	Project     ProjectSection     `toml:"project"`
	Inline      InlineSection      `toml:"inline"`
	PostProcess PostProcessSection `toml:"postprocess"`
	Trace       TraceSection       `toml:"trace"`
}

type ProjectSection struct {
	Name    string   `toml:"name"`
	Sources []string `toml:"sources"`
}

type InlineSection struct {
	DeleteDeclaration bool `toml:"delete_declaration"`
	// SearchJobs bounds the usage search workers; 0 means GOMAXPROCS.
	SearchJobs int `toml:"search_jobs"`
}

// PostProcessSection toggles the cleanup passes run after every splice.
type PostProcessSection struct {
	RestoreComments        bool `toml:"restore_comments"`
	NamedArguments         bool `toml:"named_arguments"`
	TrailingLambdas        bool `toml:"trailing_lambdas"`
	DropDefaultArguments   bool `toml:"drop_default_arguments"`
	RedundantLambdas       bool `toml:"redundant_lambdas"`
	SimplifySpreads        bool `toml:"simplify_spreads"`
	RedundantTypeArguments bool `toml:"redundant_type_arguments"`
	RedundantUnit          bool `toml:"redundant_unit"`
	ShortenReferences      bool `toml:"shorten_references"`
}

type TraceSection struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// DefaultConfig is used for every key splice.toml leaves out.
func DefaultConfig() Config {
	p := inline.AllPasses()
	return Config{
		Project: ProjectSection{Sources: []string{"."}},
		PostProcess: PostProcessSection{
			RestoreComments:        p.RestoreComments,
			NamedArguments:         p.NamedArguments,
			TrailingLambdas:        p.TrailingLambdas,
			DropDefaultArguments:   p.DropDefaultArguments,
			RedundantLambdas:       p.RedundantLambdas,
			SimplifySpreads:        p.SimplifySpreads,
			RedundantTypeArguments: p.RedundantTypeArguments,
			RedundantUnit:          p.RedundantUnit,
			ShortenReferences:      p.ShortenReferences,
		},
		Trace: TraceSection{Level: "off", Mode: "stream", Format: "auto", Output: "-"},
	}
}

// LoadConfig decodes path on top of DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("project", "sources") || len(cfg.Project.Sources) == 0 {
		cfg.Project.Sources = []string{"."}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Inline.SearchJobs < 0 {
		return fmt.Errorf("invalid [inline].search_jobs %d: must not be negative", c.Inline.SearchJobs)
	}
	for _, src := range c.Project.Sources {
		if filepath.IsAbs(src) {
			return fmt.Errorf("invalid source root %q: must be relative", src)
		}
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("invalid [trace].level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("invalid [trace].mode: %w", err)
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		return fmt.Errorf("invalid [trace].format: %w", err)
	}
	return nil
}

// Passes converts the [postprocess] section.
func (c Config) Passes() inline.Passes {
	p := c.PostProcess
	return inline.Passes{
		RestoreComments:        p.RestoreComments,
		NamedArguments:         p.NamedArguments,
		TrailingLambdas:        p.TrailingLambdas,
		DropDefaultArguments:   p.DropDefaultArguments,
		RedundantLambdas:       p.RedundantLambdas,
		SimplifySpreads:        p.SimplifySpreads,
		RedundantTypeArguments: p.RedundantTypeArguments,
		RedundantUnit:          p.RedundantUnit,
		ShortenReferences:      p.ShortenReferences,
	}
}

// Jobs returns the effective number of search workers.
func (c Config) Jobs() int {
	if c.Inline.SearchJobs > 0 {
		return c.Inline.SearchJobs
	}
	return runtime.GOMAXPROCS(0)
}

// TraceConfig converts the [trace] section. Output "-" means stderr.
func (c Config) TraceConfig(root string) (trace.Config, error) {
	lvl, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(c.Trace.Format)
	if err != nil {
		return trace.Config{}, err
	}
	out := c.Trace.Output
	if out != "" && out != "-" && !filepath.IsAbs(out) {
		out = filepath.Join(root, out)
	}
	if out == "-" {
		out = ""
	}
	return trace.Config{Level: lvl, Mode: mode, Format: format, OutputPath: out}, nil
}
