// Package kafka exports greenhouse documents (day reports) to a Kafka
// topic.
//
// Messages are JSON, keyed by the document key (the report date), and
// partitioned by key hash so every version of one day's report lands on
// the same partition.
//
// Usage:
//
//	w, err := kafka.Connect(cfg.Kafka)
//	if errors.Is(err, kafka.ErrDisabled) {
//	    // export switched off
//	}
//	defer w.Close()
//	err = w.Export(ctx, "2026-10-01", report)
package kafka
