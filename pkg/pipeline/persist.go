package pipeline

import (
	"bytes"
	"encoding/gob"
)

// snapshot is the gob wire form of a pipeline. Scoring functions are not
// serializable; a reloaded pipeline is for prediction only, per the
// persistence contract.
type snapshot struct {
	Steps   []Step
	Weights []float64
	Fitted  bool
}

// GobEncode serializes the pipeline as an opaque whole-object snapshot.
// Concrete step types must be registered with encoding/gob.
func (p *Pipeline) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(snapshot{
		Steps:   p.steps,
		Weights: p.weights,
		Fitted:  p.fitted,
	})
	return buf.Bytes(), err
}

// GobDecode restores a pipeline snapshot. The scoring function reference
// is not restored.
func (p *Pipeline) GobDecode(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	p.steps = s.Steps
	p.weights = s.Weights
	p.fitted = s.Fitted
	return nil
}
