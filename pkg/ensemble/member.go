// Package ensemble implements the generational ensemble-evolution
// engine: population management, concurrent fit scheduling, multi-
// objective scoring and ranking, and the selection contract between
// generations.
package ensemble

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/strataml/cubefit/pkg/pipeline"
)

// Member pairs a stable tag with one pipeline instance in the
// population. Tags must be unique within one generation's population;
// they need not be unique across generations. A tag that was absent
// from the previous population denotes a freshly created, unfitted
// member.
type Member struct {
	Tag      string
	Pipeline *pipeline.Pipeline
}

// Tagger issues member tags for one engine instance. It is owned by the
// engine rather than being a process-wide counter, so concurrent engines
// never collide: the uuid suffix keeps tags distinct even across engines
// sharing a prefix.
type Tagger struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewTagger creates a tag service with the given prefix.
func NewTagger(prefix string) *Tagger {
	if prefix == "" {
		prefix = "model"
	}
	return &Tagger{prefix: prefix}
}

// Next returns a fresh tag.
func (t *Tagger) Next() string {
	t.mu.Lock()
	n := t.next
	t.next++
	t.mu.Unlock()
	return fmt.Sprintf("%s-%d-%s", t.prefix, n, uuid.NewString()[:8])
}
