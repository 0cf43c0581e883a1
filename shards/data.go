package shards

import (
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// defaultBatchSize is used by Yield when the caller does not set one.
const defaultBatchSize = 32

// Dataset is the interface loaded jet data presents to training code. The
// flat accessors return contiguous float32 buffers that convert trivially
// into gomlx tensors (or any other tensor type); Yield implements gomlx's
// train.Dataset so a JetData can be fed to its training loops directly.
type Dataset interface {
	Len() int
	Example(i int) (inputs []float32, labels []float32, err error)
	Batch(indices []int) (inputs [][]float32, labels [][]float32, err error)

	// To implement gomlx's train.Dataset interface
	Yield() (any, []*tensors.Tensor, []*tensors.Tensor, error)
}

// JetData holds a loaded range of shards as flat contiguous float32 buffers
// plus shape metadata. Vectors is laid out [event][constituent][component] in
// C order; Labels holds one truth label per event. No shuffling,
// normalization or splitting is applied.
type JetData struct {
	Vectors []float32
	Labels  []float32

	// Events is the total number of events across the loaded shards.
	Events int
	// Constituents per event (200) and Components per constituent (4).
	Constituents int
	Components   int

	// BatchSize used by Yield.
	BatchSize int

	// cursor is the next event Yield will emit.
	cursor int
}

var _ Dataset = (*JetData)(nil)

// Len returns the number of loaded events.
func (d *JetData) Len() int { return d.Events }

// Name returns the name of the dataset.
func (d *JetData) Name() string { return "JetData" }

// Vector returns the four-vector of constituent j of event i as a slice view
// into the underlying buffer.
func (d *JetData) Vector(i, j int) []float32 {
	off := (i*d.Constituents + j) * d.Components
	return d.Vectors[off : off+d.Components]
}

// Label returns the truth label of event i.
func (d *JetData) Label(i int) float32 { return d.Labels[i] }

// Example returns the flattened constituent block and the truth label of
// event i. The inputs slice is a view into the underlying buffer.
func (d *JetData) Example(i int) ([]float32, []float32, error) {
	if i < 0 || i >= d.Events {
		return nil, nil, fmt.Errorf("index %d out of range [0, %d)", i, d.Events)
	}
	block := d.Constituents * d.Components
	return d.Vectors[i*block : (i+1)*block], d.Labels[i : i+1], nil
}

// Batch returns inputs and labels for the provided event indices.
func (d *JetData) Batch(indices []int) ([][]float32, [][]float32, error) {
	inputs := make([][]float32, len(indices))
	labels := make([][]float32, len(indices))
	for bi, idx := range indices {
		in, lab, err := d.Example(idx)
		if err != nil {
			return nil, nil, err
		}
		inputs[bi] = in
		labels[bi] = lab
	}
	return inputs, labels, nil
}

// ToGomlxTensors converts the buffers into gomlx tensors shaped
// [events, constituents, components] and [events].
func (d *JetData) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	return d.tensorsForRange(0, d.Events)
}

// tensorsForRange builds tensors for events [start, stop). The nested slices
// passed to gomlx are views into the flat buffers, so no event data is copied
// here.
func (d *JetData) tensorsForRange(start, stop int) (*tensors.Tensor, *tensors.Tensor, error) {
	if start < 0 || stop > d.Events || start > stop {
		return nil, nil, fmt.Errorf("event range [%d, %d) out of bounds [0, %d)", start, stop, d.Events)
	}
	n := stop - start
	if n == 0 || d.Constituents == 0 || d.Components == 0 {
		// handle empty data gracefully
		empty := make([][][]float32, 0)
		return tensors.FromAnyValue(empty), tensors.FromAnyValue(make([]float32, 0)), nil
	}

	vecs := make([][][]float32, n)
	for i := 0; i < n; i++ {
		rows := make([][]float32, d.Constituents)
		for j := 0; j < d.Constituents; j++ {
			rows[j] = d.Vector(start+i, j)
		}
		vecs[i] = rows
	}
	inT := tensors.FromAnyValue(vecs)
	labT := tensors.FromAnyValue(d.Labels[start:stop])
	return inT, labT, nil
}

// Yield returns the next batch of data for the gomlx Dataset interface.
// Batches are sequential slices of BatchSize events; io.EOF marks the end of
// the epoch, after which Restart begins a new one.
func (d *JetData) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if d.cursor >= d.Events {
		return nil, nil, nil, io.EOF
	}
	size := d.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}
	stop := d.cursor + size
	if stop > d.Events {
		stop = d.Events
	}
	inT, labT, err := d.tensorsForRange(d.cursor, stop)
	if err != nil {
		return nil, nil, nil, err
	}
	d.cursor = stop
	return nil, []*tensors.Tensor{inT}, []*tensors.Tensor{labT}, nil
}

// Restart resets the dataset for a new epoch.
func (d *JetData) Restart() error {
	d.cursor = 0
	return nil
}
