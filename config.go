package gotpack

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Options configures a Repository's tunables: cache sizes and the
// in-memory/on-disk materialization threshold (spec.md §4.5, §4.6,
// §4.7). Zero values are replaced with DefaultOptions' values by
// Open.
type Options struct {
	// PackCacheSize is the number of (index, pack) pairs kept open at
	// once.
	PackCacheSize int `toml:"pack_cache_size"`

	// DeltaCacheSizePerPack is the number of resolved delta results
	// kept cached.
	DeltaCacheSizePerPack int `toml:"delta_cache_size"`

	// InMemoryThresholdBytes is the largest materialized object size
	// Repository.ExtractToMem returns; a larger object makes it fail
	// with ErrTooLarge. Delta application itself always runs in
	// memory and never spills to a temp file.
	InMemoryThresholdBytes int64 `toml:"in_memory_threshold_bytes"`

	// MaxDeltaChainDepth bounds delta chain resolution.
	MaxDeltaChainDepth int `toml:"max_delta_chain_depth"`
}

// DefaultOptions returns the tunables used when no .gotpack.toml is
// present and no overrides are supplied.
func DefaultOptions() Options {
	return Options{
		PackCacheSize:          4,
		DeltaCacheSizePerPack:  256,
		InMemoryThresholdBytes: 8 << 20, // 8 MiB
		MaxDeltaChainDepth:     50,
	}
}

// merge fills any zero field in o with the corresponding field from
// defaults.
func (o Options) merge(defaults Options) Options {
	if o.PackCacheSize == 0 {
		o.PackCacheSize = defaults.PackCacheSize
	}
	if o.DeltaCacheSizePerPack == 0 {
		o.DeltaCacheSizePerPack = defaults.DeltaCacheSizePerPack
	}
	if o.InMemoryThresholdBytes == 0 {
		o.InMemoryThresholdBytes = defaults.InMemoryThresholdBytes
	}
	if o.MaxDeltaChainDepth == 0 {
		o.MaxDeltaChainDepth = defaults.MaxDeltaChainDepth
	}
	return o
}

// LoadOptions reads a .gotpack.toml file at path, merging any fields
// it sets over DefaultOptions. A missing file is not an error: it
// simply yields the defaults, mirroring how odvcencio-got treats an
// absent config file as "use built-in settings."
func LoadOptions(path string) (Options, error) {
	defaults := DefaultOptions()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return defaults, nil
	}

	var o Options
	if _, err := toml.DecodeFile(path, &o); err != nil {
		return Options{}, err
	}
	return o.merge(defaults), nil
}
