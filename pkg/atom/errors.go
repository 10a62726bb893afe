package atom

import "errors"

// ErrSuperseded is reported to async hooks when a run's completion is
// discarded because a newer generation was started while it was in
// flight. The atom's cached Result is left untouched by the stale run.
var ErrSuperseded = errors.New("statekit: async run superseded by newer generation")

// ErrStoreClosed is reported when an operation runs against a store
// after Close.
var ErrStoreClosed = errors.New("statekit: store closed")
