package shards

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sbinet/npyio"
)

// writeShard writes a synthetic npz shard to path. Every constituent value is
// set to vecFill and every truth label to label, so tests can verify which
// shard landed in which output slice.
func writeShard(t *testing.T, path string, events int, vecFill, label float32) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create shard %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	vecs := make([]float32, events*NConstituents*NComponents)
	for i := range vecs {
		vecs[i] = vecFill
	}
	w, err := zw.Create("constituents.npy")
	if err != nil {
		t.Fatalf("create constituents member: %v", err)
	}
	if err := npyio.Write(w, vecs); err != nil {
		t.Fatalf("write constituents: %v", err)
	}

	labels := make([]float32, events)
	for i := range labels {
		labels[i] = label
	}
	w, err = zw.Create("truth_label.npy")
	if err != nil {
		t.Fatalf("create truth_label member: %v", err)
	}
	if err := npyio.Write(w, labels); err != nil {
		t.Fatalf("write truth_label: %v", err)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close shard zip: %v", err)
	}
}

// cachedLoader returns a Loader whose cache dir is pre-populated with shards
// for kind, using per-shard fill values 10*(i+1) and label float32(i).
func cachedLoader(t *testing.T, cfg Config, kind Kind, n int) *Loader {
	t.Helper()
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		t.Fatalf("mkdir cache: %v", err)
	}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s_%d.npz", kind, i)
		writeShard(t, filepath.Join(cfg.CacheDir, name), cfg.EventsPerShard, float32(10*(i+1)), float32(i))
	}
	return NewLoader(cfg)
}

// TestLoad_TwoShards verifies shapes and that each shard's content lands in
// the correct contiguous slice, in index order.
func TestLoad_TwoShards(t *testing.T) {
	cfg := testConfig(t)
	loader := cachedLoader(t, cfg, Train, 2)

	data, err := loader.Load(Train, 0, 2)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	wantEvents := 2 * cfg.EventsPerShard
	if data.Events != wantEvents || data.Len() != wantEvents {
		t.Fatalf("Events = %d, want %d", data.Events, wantEvents)
	}
	if len(data.Vectors) != wantEvents*NConstituents*NComponents {
		t.Fatalf("Vectors length = %d, want %d", len(data.Vectors), wantEvents*NConstituents*NComponents)
	}
	if len(data.Labels) != wantEvents {
		t.Fatalf("Labels length = %d, want %d", len(data.Labels), wantEvents)
	}

	block := cfg.EventsPerShard * NConstituents * NComponents
	// first shard: fill 10, label 0
	if data.Vectors[0] != 10 || data.Vectors[block-1] != 10 {
		t.Fatalf("shard 0 values misplaced: first=%v last=%v", data.Vectors[0], data.Vectors[block-1])
	}
	// second shard: fill 20, label 1
	if data.Vectors[block] != 20 || data.Vectors[2*block-1] != 20 {
		t.Fatalf("shard 1 values misplaced: first=%v last=%v", data.Vectors[block], data.Vectors[2*block-1])
	}
	for i := 0; i < cfg.EventsPerShard; i++ {
		if data.Labels[i] != 0 {
			t.Fatalf("label %d = %v, want 0", i, data.Labels[i])
		}
		if data.Labels[cfg.EventsPerShard+i] != 1 {
			t.Fatalf("label %d = %v, want 1", cfg.EventsPerShard+i, data.Labels[cfg.EventsPerShard+i])
		}
	}
}

// TestLoad_DefaultStopExcludesLastShard pins the inherited boundary: a
// negative stopFile loads shards 0 through count-2 inclusive, never the last
// shard index.
func TestLoad_DefaultStopExcludesLastShard(t *testing.T) {
	cfg := testConfig(t) // train has 3 shards
	loader := cachedLoader(t, cfg, Train, 3)

	data, err := loader.Load(Train, 0, -1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// 3 shards, default stop is count-1 = 2, so only shards 0 and 1 load.
	wantEvents := 2 * cfg.EventsPerShard
	if data.Events != wantEvents {
		t.Fatalf("Events = %d, want %d (default stop must exclude the last shard)", data.Events, wantEvents)
	}
	for i, lab := range data.Labels {
		if lab == 2 {
			t.Fatalf("label of shard 2 found at event %d; last shard must not load by default", i)
		}
	}
}

// TestLoad_UnknownKindBeforeIO ensures Load fails on an unknown kind before
// provisioning anything.
func TestLoad_UnknownKindBeforeIO(t *testing.T) {
	cfg := testConfig(t)
	loader := NewLoader(cfg)
	loader.Provisioner.Probe = func(Config, string) Availability {
		t.Errorf("probe must not run for an unknown kind")
		return DownloadRequired
	}

	if _, err := loader.Load("images", 0, -1); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, err := os.Stat(cfg.CacheDir); !os.IsNotExist(err) {
		t.Fatalf("unknown kind should not create the cache dir")
	}
}

// TestLoad_IndexOutOfRange ensures an explicit stop beyond the shard count
// fails while resolving, not mid-read.
func TestLoad_IndexOutOfRange(t *testing.T) {
	cfg := testConfig(t)
	loader := cachedLoader(t, cfg, Train, 3)

	if _, err := loader.Load(Train, 0, 4); err == nil {
		t.Fatalf("expected error for stop beyond shard count")
	}
	if _, err := loader.Load(Train, -1, 2); err == nil {
		t.Fatalf("expected error for negative start")
	}
}

// TestLoad_EmptyRange returns empty buffers when start >= stop.
func TestLoad_EmptyRange(t *testing.T) {
	cfg := testConfig(t)
	loader := cachedLoader(t, cfg, Train, 1)

	data, err := loader.Load(Train, 1, 1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if data.Events != 0 || len(data.Vectors) != 0 || len(data.Labels) != 0 {
		t.Fatalf("expected empty data, got events=%d", data.Events)
	}
}

// TestLoad_ShapeMismatch verifies a shard with the wrong event count is
// rejected with an error naming the file.
func TestLoad_ShapeMismatch(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		t.Fatalf("mkdir cache: %v", err)
	}
	// config expects 2 events per shard; write 3
	writeShard(t, filepath.Join(cfg.CacheDir, "train_0.npz"), 3, 1, 0)
	loader := NewLoader(cfg)

	_, err := loader.Load(Train, 0, 1)
	if err == nil {
		t.Fatalf("expected shape mismatch error")
	}
	if !strings.Contains(err.Error(), "train_0.npz") {
		t.Fatalf("error should name the offending shard, got: %v", err)
	}
}

// TestLoad_MissingMember verifies a shard without the expected arrays fails.
func TestLoad_MissingMember(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		t.Fatalf("mkdir cache: %v", err)
	}
	// empty zip, no members
	f, err := os.Create(filepath.Join(cfg.CacheDir, "train_0.npz"))
	if err != nil {
		t.Fatalf("create shard: %v", err)
	}
	if err := zip.NewWriter(f).Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	f.Close()

	loader := NewLoader(cfg)
	_, err = loader.Load(Train, 0, 1)
	if err == nil || !strings.Contains(err.Error(), memberConstituents) {
		t.Fatalf("expected missing-member error for constituents, got: %v", err)
	}
}
