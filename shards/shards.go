// Package shards resolves, fetches and loads the pre-generated jet-constituent
// dataset shards used by the top-tagging experiments.
//
// Each dataset split ("train", "valid" or "test") is stored as a fixed number
// of .npz shard files. A shard holds two float32 arrays: "constituents" with
// the four-vectors of the leading jet constituents per event (shape
// [events, 200, 4]) and "truth_label" with one label per event. Shards are
// materialized into a local cache directory on first use, either by copying
// from a shared EOS mount or, when the mount is not readable, by downloading
// from the public HTTPS share.
package shards

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind identifies a dataset split.
type Kind string

// The dataset splits shipped with the pre-generated shards.
const (
	Train Kind = "train"
	Valid Kind = "valid"
	Test  Kind = "test"
)

// Data constants shared by every full-size shard file.
const (
	// NConstituents is the number of jet constituents stored per event.
	NConstituents = 200

	// NComponents is the number of four-vector components per constituent
	// (E, px, py, pz).
	NComponents = 4

	// EventsPerShard is the number of events stored in each production shard.
	EventsPerShard = 50000
)

// Config holds the fixed, process-wide configuration for shard provisioning.
// It is constructed once (usually via DefaultConfig) and passed explicitly to
// the Provisioner and Loader; nothing reads it from global scope.
type Config struct {
	// CacheDir is the local directory holding provisioned shard files. It is
	// created on first use. Its contents are treated as an immutable cache
	// keyed by shard identity, so files persist across runs.
	CacheDir string

	// MountDir is the read-only shared-storage mount that holds every shard.
	// When it is readable, shards are copied from here instead of downloaded.
	MountDir string

	// DownloadURL is the base HTTPS endpoint used when the mount is not
	// readable. The shard file name is appended as a percent-encoded query.
	DownloadURL string

	// ShardCounts maps each dataset kind to its fixed number of shard files.
	ShardCounts map[Kind]int

	// EventsPerShard is the number of events per shard file. Production
	// datasets always use the EventsPerShard constant (50000); tests
	// substitute smaller synthetic shards.
	EventsPerShard int
}

// DefaultConfig returns the configuration for the production datasets.
func DefaultConfig() Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return Config{
		CacheDir:       filepath.Join(cacheDir, "topjets"),
		MountDir:       "/eos/user/m/mrieger/swan_aws_data",
		DownloadURL:    "https://cernbox.cern.ch/index.php/s/6ZmwPvqoIGvHPLH/download",
		ShardCounts:    map[Kind]int{Train: 20, Valid: 8, Test: 8},
		EventsPerShard: EventsPerShard,
	}
}

// Kinds returns the valid dataset kinds in a stable order.
func (c Config) Kinds() []Kind {
	kinds := make([]Kind, 0, len(c.ShardCounts))
	for k := range c.ShardCounts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ShardCount returns the number of shard files for kind, or an error naming
// the valid kinds if kind is unknown.
func (c Config) ShardCount(kind Kind) (int, error) {
	count, ok := c.ShardCounts[kind]
	if !ok {
		names := make([]string, 0, len(c.ShardCounts))
		for _, k := range c.Kinds() {
			names = append(names, string(k))
		}
		return 0, fmt.Errorf("unknown dataset kind %q, must be one of %s", kind, strings.Join(names, ","))
	}
	return count, nil
}

// ShardFile validates kind and index and returns the deterministic shard file
// name "{kind}_{index}.npz". The index must satisfy 0 <= index < ShardCount;
// anything else is a usage error reported before any I/O happens.
func (c Config) ShardFile(kind Kind, index int) (string, error) {
	count, err := c.ShardCount(kind)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= count {
		return "", fmt.Errorf("dataset %q has no file index %d (valid range [0, %d))", kind, index, count)
	}
	return fmt.Sprintf("%s_%d.npz", kind, index), nil
}
