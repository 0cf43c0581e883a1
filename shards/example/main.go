package main

// Example command that demonstrates provisioning and loading a small range of
// dataset shards, converting the result into gomlx tensors and writing a
// constituent scatter plot.
//
// Usage:
//   go run ./example
//
// Note: this example fetches real shards. On machines without the shared EOS
// mount the files are downloaded (about 160 MB per shard) into the local
// cache directory on first run; subsequent runs are pure cache hits.

import (
	"fmt"
	"log"

	"github.com/Noofbiz/topjets/shards"
)

func main() {
	cfg := shards.DefaultConfig()
	loader := shards.NewLoader(cfg)

	// Two validation shards are plenty for a demonstration.
	data, err := loader.Load(shards.Valid, 0, 2)
	if err != nil {
		log.Fatalf("failed to load valid shards: %v", err)
	}
	fmt.Printf("Loaded %d events (%d constituents x %d components each)\n",
		data.Len(), data.Constituents, data.Components)

	sum := shards.Summarize(data)
	fmt.Printf("Summary: %s\n", sum)

	// Convert to gomlx tensors. We don't depend on any particular tensor API
	// here; just show we have tensors.
	inT, labT, err := data.ToGomlxTensors()
	if err != nil {
		log.Fatalf("failed to convert to tensors: %v", err)
	}
	fmt.Printf("Created tensors: inputs=%T labels=%T\n", inT, labT)

	if err := shards.SavePlot(data, "plots/constituents.png", 200); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	log.Printf("Plot written to plots/constituents.png")
}
