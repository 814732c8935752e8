package store

import (
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Resource profiles understood by buildBadgerOptions.
const (
	ProfileLowMem  = "Cloud-Run-LowMem"
	ProfileServing = "Safe-Serving"
	ProfileWrite   = "Write-Heavy"
)

// Config holds the configuration of a workspace store.
type Config struct {
	// DataDir is the workspace directory. The badger files live in DataDir/badger.
	DataDir string `yaml:"data_dir"`

	// InMemory keeps everything in RAM (useful for testing).
	InMemory bool `yaml:"in_memory"`

	// BlockCacheSize is the size of the badger block cache in bytes.
	BlockCacheSize int64 `yaml:"block_cache_size"`

	// IndexCacheSize is the size of the badger index cache in bytes.
	IndexCacheSize int64 `yaml:"index_cache_size"`

	// LRUCacheSize bounds the namespace lookup caches. Zero disables them.
	LRUCacheSize int `yaml:"lru_cache_size"`

	// Compression enables ZSTD block compression. Binary content is s2
	// compressed either way.
	Compression bool `yaml:"compression"`

	// SyncWrites enables synchronous writes.
	SyncWrites bool `yaml:"sync_writes"`

	// MemTableSize is the size of the memtable in bytes. Default: 64MB.
	MemTableSize int64 `yaml:"mem_table_size"`

	// NumMemtables is the number of memtables kept in memory. Default: 5.
	NumMemtables int `yaml:"num_memtables"`

	// Profile selects the resource profile. Defaults to ProfileServing.
	Profile string `yaml:"profile"`

	// ReadOnly opens the database read-only. A read-only workspace must have
	// been provisioned before.
	ReadOnly bool `yaml:"read_only"`
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return fmt.Errorf("DataDir must be specified when InMemory is false")
	}
	if c.BlockCacheSize <= 0 {
		return fmt.Errorf("BlockCacheSize must be positive, got %d", c.BlockCacheSize)
	}
	if c.IndexCacheSize <= 0 {
		return fmt.Errorf("IndexCacheSize must be positive, got %d", c.IndexCacheSize)
	}
	if c.LRUCacheSize < 0 {
		return fmt.Errorf("LRUCacheSize must be non-negative, got %d", c.LRUCacheSize)
	}
	switch c.Profile {
	case "", ProfileLowMem, ProfileServing, ProfileWrite:
	default:
		return fmt.Errorf("unknown profile %q", c.Profile)
	}
	if c.InMemory && c.ReadOnly {
		return fmt.Errorf("an in-memory store cannot be read-only")
	}
	return nil
}

// DefaultConfig returns a configuration sized for a single workspace.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		DataDir:        dataDir,
		BlockCacheSize: 256 << 20, // 256MB
		IndexCacheSize: 64 << 20,  // 64MB
		LRUCacheSize:   10000,
		Compression:    true,
		Profile:        ProfileServing,
	}
}

// InMemoryConfig returns a configuration for a throwaway store.
func InMemoryConfig() *Config {
	cfg := DefaultConfig("")
	cfg.InMemory = true
	return cfg
}

// buildBadgerOptions converts Config to badger.Options based on Profile.
func buildBadgerOptions(cfg *Config) badger.Options {
	if cfg.InMemory {
		opts := badger.DefaultOptions("")
		opts.InMemory = true
		opts.Logger = nil
		return opts
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.DataDir, "badger"))
	opts.Logger = nil
	opts.BloomFalsePositive = 0.01
	opts.ReadOnly = cfg.ReadOnly

	if cfg.Compression {
		opts.Compression = options.ZSTD
	} else {
		opts.Compression = options.None
	}

	switch cfg.Profile {
	case ProfileLowMem:
		opts.ValueLogFileSize = 32 << 20
		opts.NumCompactors = 2
		opts.IndexCacheSize = 64 << 20
	case ProfileWrite:
		opts.ValueLogFileSize = 1 << 30
		opts.NumCompactors = 4
	default:
		// Badger v4 requires at least 2 compactors.
		opts.ValueLogFileSize = 64 << 20
		opts.NumCompactors = 2
	}

	opts.BlockCacheSize = cfg.BlockCacheSize
	if cfg.Profile != ProfileLowMem {
		opts.IndexCacheSize = cfg.IndexCacheSize
	}
	opts.SyncWrites = cfg.SyncWrites

	if cfg.MemTableSize > 0 {
		opts.MemTableSize = cfg.MemTableSize
	}
	if cfg.NumMemtables > 0 {
		opts.NumMemtables = cfg.NumMemtables
	}
	return opts
}

// OpenBadgerDB opens a BadgerDB instance with the given configuration.
func OpenBadgerDB(cfg *Config) (*badger.DB, error) {
	return badger.Open(buildBadgerOptions(cfg))
}
