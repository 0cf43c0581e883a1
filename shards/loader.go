package shards

import (
	"fmt"
)

// Loader loads shard file ranges into pre-allocated buffers, provisioning
// missing shards through its Provisioner.
type Loader struct {
	Provisioner *Provisioner
}

// NewLoader creates a Loader backed by a default Provisioner for cfg.
func NewLoader(cfg Config) *Loader {
	return &Loader{Provisioner: NewProvisioner(cfg)}
}

// Load loads a certain kind of dataset ("train", "valid" or "test") and
// returns the four-vectors of the jet constituents and the truth labels in a
// single JetData. Each dataset consists of multiple shard files whose arrays
// are concatenated in index order. For faster prototyping and testing,
// startFile (included) and stopFile (first file that is NOT included)
// restrict the range of files to load.
//
// A negative stopFile defaults to ShardCount(kind)-1, so the default range
// stops one short of the last shard index. This mirrors how the datasets
// were published and is relied upon by downstream experiments; pass the
// shard count explicitly to load every file.
func (l *Loader) Load(kind Kind, startFile, stopFile int) (*JetData, error) {
	cfg := l.Provisioner.Config
	count, err := cfg.ShardCount(kind)
	if err != nil {
		return nil, err
	}
	if stopFile < 0 {
		stopFile = count - 1
	}

	// Provision every shard in the range up front; argument errors and
	// transfer failures surface before any buffer is allocated.
	paths := make([]string, 0, max(0, stopFile-startFile))
	for i := startFile; i < stopFile; i++ {
		path, err := l.Provisioner.Resolve(kind, i)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	// Instead of loading all shards, storing their contents and
	// concatenating at the end, which can peak at twice the memory of the
	// inputs, allocate the output buffers with the final dimensions right
	// away and fill them while iterating through the shard files.
	events := len(paths) * cfg.EventsPerShard
	data := &JetData{
		Vectors:      make([]float32, events*NConstituents*NComponents),
		Labels:       make([]float32, events),
		Events:       events,
		Constituents: NConstituents,
		Components:   NComponents,
		BatchSize:    defaultBatchSize,
	}

	valuesPerShard := cfg.EventsPerShard * NConstituents * NComponents
	for i, path := range paths {
		vecs, err := readMember(path, memberConstituents)
		if err != nil {
			return nil, err
		}
		if len(vecs) != valuesPerShard {
			return nil, fmt.Errorf("shard %s: constituents has %d values, want %d (%d events x %d x %d)",
				path, len(vecs), valuesPerShard, cfg.EventsPerShard, NConstituents, NComponents)
		}
		labels, err := readMember(path, memberTruthLabel)
		if err != nil {
			return nil, err
		}
		if len(labels) != cfg.EventsPerShard {
			return nil, fmt.Errorf("shard %s: truth_label has %d values, want %d",
				path, len(labels), cfg.EventsPerShard)
		}
		copy(data.Vectors[i*valuesPerShard:], vecs)
		copy(data.Labels[i*cfg.EventsPerShard:], labels)
	}

	return data, nil
}
