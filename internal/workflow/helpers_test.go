package workflow

import "github.com/papapumpkin/flowlane/internal/dag"

// quietLayout suppresses diagnostics for fixtures with deliberate dangling
// references.
var quietLayout = []dag.Option{dag.WithWarnings(false)}
