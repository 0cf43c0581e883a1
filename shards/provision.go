package shards

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
)

// Availability describes where a shard can be obtained from. It is the result
// of the capability probe that runs before any transfer starts.
type Availability int

const (
	// LocalHit means the shard already sits in the local cache.
	LocalHit Availability = iota

	// MountAvailable means the shared-storage mount is readable and holds
	// the shard.
	MountAvailable

	// DownloadRequired means neither the cache nor the mount can serve the
	// shard, so it has to be fetched over HTTPS.
	DownloadRequired
)

// String implements fmt.Stringer.
func (a Availability) String() string {
	switch a {
	case LocalHit:
		return "local-hit"
	case MountAvailable:
		return "mount-available"
	default:
		return "download-required"
	}
}

// Probe decides how the shard stored under fileName can be obtained.
type Probe func(cfg Config, fileName string) Availability

// DefaultProbe checks the local cache first, then read-access on the shared
// mount, and falls back to requiring a download.
func DefaultProbe(cfg Config, fileName string) Availability {
	if _, err := os.Stat(filepath.Join(cfg.CacheDir, fileName)); err == nil {
		return LocalHit
	}
	f, err := os.Open(filepath.Join(cfg.MountDir, fileName))
	if err == nil {
		f.Close()
		return MountAvailable
	}
	return DownloadRequired
}

// Provisioner materializes shard files in the local cache directory.
type Provisioner struct {
	// Config is the fixed configuration the provisioner operates on.
	Config Config

	// Probe decides between cache hit, mount copy and download. Nil means
	// DefaultProbe. Tests inject probes (and stub servers) to keep the
	// dispatch observable without a real mount or network.
	Probe Probe

	// Client is the HTTP client used for downloads. Nil means
	// http.DefaultClient. Transfers have no timeout of their own; callers
	// wanting one inject a client with a Timeout set.
	Client *http.Client
}

// NewProvisioner creates a Provisioner with the default probe and client.
func NewProvisioner(cfg Config) *Provisioner {
	return &Provisioner{Config: cfg}
}

// Resolve returns the absolute local path of the shard (kind, index), copying
// it from the shared mount or downloading it first if it is not cached yet.
//
// Argument validation happens before any filesystem access. Concurrent
// processes provisioning the same shard may both write the destination; last
// writer wins, which is acceptable because shard content is immutable and
// identical regardless of writer. Repeated calls for the same shard are
// idempotent: the second call is a pure cache hit.
func (p *Provisioner) Resolve(kind Kind, index int) (string, error) {
	fileName, err := p.Config.ShardFile(kind, index)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(p.Config.CacheDir, 0755); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", p.Config.CacheDir, err)
	}
	dest, err := filepath.Abs(filepath.Join(p.Config.CacheDir, fileName))
	if err != nil {
		return "", fmt.Errorf("resolve cache path for %s: %w", fileName, err)
	}

	probe := p.Probe
	if probe == nil {
		probe = DefaultProbe
	}

	switch probe(p.Config, fileName) {
	case LocalHit:
		return dest, nil

	case MountAvailable:
		src := filepath.Join(p.Config.MountDir, fileName)
		log.Printf("Copying %s from %s", fileName, p.Config.MountDir)
		if err := copyFile(src, dest); err != nil {
			return "", fmt.Errorf("copy shard %s from mount: %w", fileName, err)
		}
		return dest, nil

	default:
		shardURL := buildShardURL(p.Config.DownloadURL, fileName)
		log.Printf("Downloading %s", shardURL)
		client := p.Client
		if client == nil {
			client = http.DefaultClient
		}
		if err := download(client, shardURL, dest); err != nil {
			return "", fmt.Errorf("download shard %s from %s: %w", fileName, shardURL, err)
		}
		return dest, nil
	}
}

// copyFile copies src into dest through a temp file in the destination
// directory, renaming on success so readers never observe a partial shard.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	return writeAtomic(dest, in)
}
