// Package ports defines the interfaces between the pipeline and its
// infrastructure dependencies. Implementations live under adapters/.
package ports

import (
	"context"
	"time"

	"github.com/flowbridge/flowbridge/domain/webhook"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Forwarder issues the single outbound POST the pipeline makes per
// admitted, routed request and classifies its outcome. Implementations
// must be safe for concurrent use by independent request contexts.
type Forwarder interface {
	Forward(ctx context.Context, req webhook.ForwardRequest) webhook.Outcome
}
