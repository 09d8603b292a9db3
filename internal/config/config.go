// Package config holds the knobs for a scan. Defaults come from the
// environment (DSKDUPES_*) and are then overridden by command line flags.
package config

import (
	"fmt"
	"runtime"

	"github.com/jdefrancesco/dskDupes/internal/dfs"
	"github.com/jdefrancesco/dskDupes/pkg/utils"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "DSKDUPES"

// Mode selects what happens to the duplicates once they are found.
type Mode int

const (
	// ModeScan finds duplicates and does nothing with them.
	ModeScan Mode = iota
	ModeList
	ModeDelete
)

func (m Mode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeDelete:
		return "delete"
	default:
		return "scan"
	}
}

// Size is a byte count that accepts human readable values such as "64KiB".
// It satisfies both envconfig.Decoder and pflag.Value.
type Size uint64

func (s *Size) Decode(value string) error { return s.Set(value) }

func (s *Size) Set(value string) error {
	n, err := utils.ParseSize(value)
	if err != nil {
		return err
	}
	*s = Size(n)
	return nil
}

func (s *Size) String() string { return utils.DisplaySize(uint64(*s)) }

func (s *Size) Type() string { return "size" }

type Config struct {
	// Skip over empty files.
	SkipEmpty bool `envconfig:"SKIP_EMPTY"`
	// SkipHidden controls whether hidden dotfiles and directories are skipped.
	SkipHidden bool `envconfig:"SKIP_HIDDEN"`
	// File size limits. Zero means no limit.
	MinFileSize Size `envconfig:"MIN_SIZE"`
	MaxFileSize Size `envconfig:"MAX_SIZE"`
	// HashAlgorithm selects which digest is used when hashing file contents.
	HashAlgorithm dfs.HashAlgorithm `envconfig:"HASH" default:"sha256"`
	// ChunkSize is how much of a file is read per hash update.
	ChunkSize Size `envconfig:"CHUNK_SIZE" default:"1MiB"`
	// Workers bounds concurrent hashing. Zero uses GOMAXPROCS.
	Workers int `envconfig:"WORKERS"`
	// ContinueOnError logs and collects per-file failures instead of
	// aborting the run on the first one.
	ContinueOnError bool `envconfig:"CONTINUE_ON_ERROR"`

	LogFile  string `envconfig:"LOG_FILE" default:"dskDupes.log"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	Mode        Mode   `ignored:"true"`
	Interactive bool   `ignored:"true"`
	JSONPath    string `ignored:"true"`
	CSVPath     string `ignored:"true"`
}

// Load returns a Config populated from DSKDUPES_* environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	return cfg, nil
}

// Validate normalises the config and reports the first invalid setting.
func (c *Config) Validate() error {
	algo, err := dfs.ParseHashAlgorithm(string(c.HashAlgorithm))
	if err != nil {
		return err
	}
	c.HashAlgorithm = algo

	if c.ChunkSize == 0 {
		c.ChunkSize = dfs.DefaultChunkSize
	}
	if c.ChunkSize > 1<<30 {
		return fmt.Errorf("chunk size %s is larger than 1 GiB", c.ChunkSize.String())
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MaxFileSize != 0 && c.MinFileSize > c.MaxFileSize {
		return fmt.Errorf("min size %s exceeds max size %s", c.MinFileSize.String(), c.MaxFileSize.String())
	}
	if c.Interactive && c.Mode != ModeDelete {
		return fmt.Errorf("interactive review only applies to delete mode")
	}
	return nil
}
