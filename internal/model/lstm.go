package model

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/newthinker/insight/internal/core"
)

// ArtifactFormat identifies the JSON weight export understood by Decode.
const ArtifactFormat = "lstm-v1"

// Layer types
const (
	LayerLSTM    = "lstm"
	LayerDense   = "dense"
	LayerDropout = "dropout"
)

// Layer holds one exported layer. Weight matrices use the Keras layout:
// LSTM kernels are input×4·units with gates ordered i, f, c, o; Dense
// kernels are input×units.
type Layer struct {
	Type            string      `json:"type"`
	Units           int         `json:"units,omitempty"`
	Kernel          [][]float64 `json:"kernel,omitempty"`
	RecurrentKernel [][]float64 `json:"recurrent_kernel,omitempty"`
	Bias            []float64   `json:"bias,omitempty"`
	ReturnSequences bool        `json:"return_sequences,omitempty"`
	Activation      string      `json:"activation,omitempty"`
}

// Artifact is the serialized form of a network.
type Artifact struct {
	Format   string  `json:"format"`
	Name     string  `json:"name,omitempty"`
	Lookback int     `json:"lookback"`
	Layers   []Layer `json:"layers"`
}

// Network runs inference of a stacked LSTM/Dense network.
// It is immutable after Decode and safe for concurrent use.
type Network struct {
	name     string
	lookback int
	layers   []Layer
}

// Decode reads and validates an artifact.
func Decode(r io.Reader) (*Network, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, core.WrapError(core.ErrModelFailed, fmt.Errorf("decoding artifact: %w", err))
	}
	return NewNetwork(a)
}

// NewNetwork validates layer shapes against the lookback window.
func NewNetwork(a Artifact) (*Network, error) {
	if err := a.validate(); err != nil {
		return nil, core.WrapError(core.ErrModelFailed, err)
	}
	return &Network{name: a.Name, lookback: a.Lookback, layers: a.Layers}, nil
}

func (a Artifact) validate() error {
	if a.Format != ArtifactFormat {
		return fmt.Errorf("unsupported artifact format %q", a.Format)
	}
	if a.Lookback <= 0 {
		return fmt.Errorf("lookback must be positive")
	}

	steps, width := a.Lookback, 1
	for i, l := range a.Layers {
		switch l.Type {
		case LayerDropout:
			continue
		case LayerLSTM:
			g := 4 * l.Units
			if l.Units <= 0 ||
				!isMatrix(l.Kernel, width, g) ||
				!isMatrix(l.RecurrentKernel, l.Units, g) ||
				len(l.Bias) != g {
				return fmt.Errorf("layer %d: lstm weights do not match %d inputs and %d units", i, width, l.Units)
			}
			width = l.Units
			if !l.ReturnSequences {
				steps = 1
			}
		case LayerDense:
			in := steps * width
			if l.Units <= 0 || !isMatrix(l.Kernel, in, l.Units) || len(l.Bias) != l.Units {
				return fmt.Errorf("layer %d: dense weights do not match %d inputs and %d units", i, in, l.Units)
			}
			if _, err := activation(l.Activation); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
			steps, width = 1, l.Units
		default:
			return fmt.Errorf("layer %d: unknown type %q", i, l.Type)
		}
	}

	if steps != 1 || width != 1 {
		return fmt.Errorf("network must end in a single output, got %d×%d", steps, width)
	}
	return nil
}

func isMatrix(m [][]float64, rows, cols int) bool {
	if len(m) != rows {
		return false
	}
	for _, row := range m {
		if len(row) != cols {
			return false
		}
	}
	return true
}

// Name returns the artifact name, if any.
func (n *Network) Name() string { return n.name }

// Lookback returns the window length the network was trained on.
func (n *Network) Lookback() int { return n.lookback }

// PredictNext implements Model. Only the last Lookback values of window are used.
func (n *Network) PredictNext(ctx context.Context, window []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(window) < n.lookback {
		return 0, core.WrapError(core.ErrModelFailed,
			fmt.Errorf("window has %d values, network needs %d", len(window), n.lookback))
	}

	window = window[len(window)-n.lookback:]
	seq := make([][]float64, len(window))
	for i, v := range window {
		seq[i] = []float64{v}
	}

	for _, l := range n.layers {
		switch l.Type {
		case LayerLSTM:
			seq = lstmForward(l, seq)
		case LayerDense:
			act, _ := activation(l.Activation)
			seq = [][]float64{denseForward(l, flatten(seq), act)}
		}
	}

	out := seq[len(seq)-1][0]
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, core.WrapError(core.ErrModelFailed, fmt.Errorf("network produced %v", out))
	}
	return out, nil
}

func lstmForward(l Layer, seq [][]float64) [][]float64 {
	u := l.Units
	h := make([]float64, u)
	c := make([]float64, u)
	z := make([]float64, 4*u)

	var outputs [][]float64
	for _, x := range seq {
		copy(z, l.Bias)
		for i, xi := range x {
			for j, w := range l.Kernel[i] {
				z[j] += xi * w
			}
		}
		for i, hi := range h {
			for j, w := range l.RecurrentKernel[i] {
				z[j] += hi * w
			}
		}

		next := make([]float64, u)
		for k := 0; k < u; k++ {
			in := sigmoid(z[k])
			forget := sigmoid(z[u+k])
			cand := math.Tanh(z[2*u+k])
			out := sigmoid(z[3*u+k])
			c[k] = forget*c[k] + in*cand
			next[k] = out * math.Tanh(c[k])
		}
		h = next
		if l.ReturnSequences {
			outputs = append(outputs, h)
		}
	}

	if !l.ReturnSequences {
		return [][]float64{h}
	}
	return outputs
}

func denseForward(l Layer, x []float64, act func(float64) float64) []float64 {
	y := make([]float64, l.Units)
	copy(y, l.Bias)
	for i, xi := range x {
		for j, w := range l.Kernel[i] {
			y[j] += xi * w
		}
	}
	for j := range y {
		y[j] = act(y[j])
	}
	return y
}

func flatten(seq [][]float64) []float64 {
	if len(seq) == 1 {
		return seq[0]
	}
	var out []float64
	for _, row := range seq {
		out = append(out, row...)
	}
	return out
}

func activation(name string) (func(float64) float64, error) {
	switch name {
	case "", "linear":
		return func(x float64) float64 { return x }, nil
	case "relu":
		return func(x float64) float64 { return math.Max(0, x) }, nil
	case "sigmoid":
		return sigmoid, nil
	case "tanh":
		return math.Tanh, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
