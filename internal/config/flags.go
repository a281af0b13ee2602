package config

import "github.com/spf13/pflag"

// Flags is the top layer of the resolution chain: CLI flag values,
// applied only when the caller actually set them. A nil *string/*int
// field means "flag not set", not "set to zero value".
type Flags struct {
	BoardDir          *string
	MaxIterations     *int
	DefaultTimezone   *string
	SearchAPIEndpoint *string
}

func (f *Flags) apply(cfg *Config) {
	if f.BoardDir != nil {
		cfg.Board.Dir = *f.BoardDir
	}
	if f.MaxIterations != nil {
		cfg.Executor.MaxIterations = *f.MaxIterations
	}
	if f.DefaultTimezone != nil {
		cfg.Scheduler.DefaultTimezone = *f.DefaultTimezone
	}
	if f.SearchAPIEndpoint != nil {
		cfg.Tools.SearchAPIEndpoint = *f.SearchAPIEndpoint
	}
}

// FlagsFromSet reads taskter's global flags off fs, returning a Flags
// with only the ones the user actually passed populated — the rest
// stay nil so Load leaves the lower layers' values in place. Flags not
// registered on fs (fs is nil, or the flag is absent) are treated as
// unset rather than an error, so callers can register only a subset.
func FlagsFromSet(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	if fs == nil {
		return f
	}
	if fs.Changed("board-dir") {
		if v, err := fs.GetString("board-dir"); err == nil {
			f.BoardDir = &v
		}
	}
	if fs.Changed("max-iterations") {
		if v, err := fs.GetInt("max-iterations"); err == nil {
			f.MaxIterations = &v
		}
	}
	if fs.Changed("default-timezone") {
		if v, err := fs.GetString("default-timezone"); err == nil {
			f.DefaultTimezone = &v
		}
	}
	if fs.Changed("search-api-endpoint") {
		if v, err := fs.GetString("search-api-endpoint"); err == nil {
			f.SearchAPIEndpoint = &v
		}
	}
	return f
}
