package stage

import "context"

// Generator produces one derived artifact from a NotesText snapshot. The
// workflow fans generators out concurrently; a generator must not depend on
// another generator's result.
type Generator interface {
	Name() string
	Generate(ctx context.Context, notes string) (any, error)
}

