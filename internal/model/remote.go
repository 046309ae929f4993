package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/insight/internal/core"
)

// Remote calls a TensorFlow-Serving style REST endpoint for inference.
type Remote struct {
	endpoint string
	name     string
	lookback int
	client   *http.Client
}

// NewRemote creates a client for model name served at endpoint.
func NewRemote(endpoint, name string, lookback int, timeout time.Duration) (*Remote, error) {
	if endpoint == "" || name == "" {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("remote model needs endpoint and name"))
	}
	if lookback <= 0 {
		lookback = 60
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		name:     name,
		lookback: lookback,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

// PredictNext implements Model.
func (r *Remote) PredictNext(ctx context.Context, window []float64) (float64, error) {
	if len(window) < r.lookback {
		return 0, core.WrapError(core.ErrModelFailed,
			fmt.Errorf("window has %d values, model needs %d", len(window), r.lookback))
	}
	window = window[len(window)-r.lookback:]

	steps := make([][]float64, len(window))
	for i, v := range window {
		steps[i] = []float64{v}
	}

	body, err := json.Marshal(predictRequest{Instances: [][][]float64{steps}})
	if err != nil {
		return 0, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:predict", r.endpoint, r.name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, core.WrapError(core.ErrModelFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, core.WrapError(ErrNotFound, fmt.Errorf("model %q not served", r.name))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, core.WrapError(core.ErrModelFailed, fmt.Errorf("decoding response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return 0, core.WrapError(core.ErrModelFailed,
			fmt.Errorf("model server returned status %d: %s", resp.StatusCode, out.Error))
	}
	if len(out.Predictions) == 0 || len(out.Predictions[0]) == 0 {
		return 0, core.WrapError(core.ErrModelFailed, fmt.Errorf("empty predictions"))
	}
	return out.Predictions[0][0], nil
}

// RemoteSource serves the same Remote model for every symbol.
type RemoteSource struct {
	Model *Remote
}

// Load implements Source.
func (s RemoteSource) Load(ctx context.Context, symbol string) (Model, error) {
	if s.Model == nil {
		return nil, ErrNotFound
	}
	return s.Model, nil
}
