package shards

import (
	"archive/zip"
	"fmt"
	"strings"

	"github.com/sbinet/npyio"
)

// Names of the arrays stored inside every shard archive.
const (
	memberConstituents = "constituents"
	memberTruthLabel   = "truth_label"
)

// readMember reads the named float32 array out of the npz archive at path and
// returns its values flattened in C order. numpy stores each array as a
// "<name>.npy" zip member; both spellings are accepted here.
func readMember(path, name string) ([]float32, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open shard %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if strings.TrimSuffix(f.Name, ".npy") != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open member %s of %s: %w", f.Name, path, err)
		}
		var data []float32
		err = npyio.Read(rc, &data)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("decode member %s of %s: %w", f.Name, path, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("shard %s has no member %q", path, name)
}
