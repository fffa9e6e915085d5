package pipeline

import (
	"github.com/hadronproject/hadron/internal/common/hadroncontext"
	"github.com/hadronproject/hadron/internal/eventingester/model"
)

// Sink is implemented by the struct responsible for putting events in their final
// resting place, e.g. a database. Store must commit the whole batch in a single
// transaction or fail it as a whole, tolerate duplicate event ids as no-ops, and be
// safe for concurrent calls. The pipeline does not retry failed batches; retry policy
// belongs to the Sink or its caller.
type Sink interface {
	Store(ctx *hadroncontext.Context, events []model.Event) error
}
