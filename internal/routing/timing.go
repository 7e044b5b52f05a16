package routing

import (
	"context"
	"log"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// timed logs the duration of an outbound operation and records it as a
// New Relic segment when the context carries a transaction.
func timed(ctx context.Context, op string) func(errp *error) {
	start := time.Now()
	var seg *newrelic.Segment
	if txn := newrelic.FromContext(ctx); txn != nil {
		seg = txn.StartSegment(op)
	}

	return func(errp *error) {
		if seg != nil {
			seg.End()
		}
		dur := time.Since(start)
		if errp != nil && *errp != nil {
			log.Printf("op=%s dur=%dms err=%v", op, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("op=%s dur=%dms", op, dur.Milliseconds())
	}
}
