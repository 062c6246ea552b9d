package kafka

// Topics used by the decision workflow
const (
	// TopicRunEvents carries per-run progress events (phase transitions,
	// debate turns, completion). Keyed by run ID so one run stays ordered
	// within a partition.
	TopicRunEvents = "consilium.run.events"
)
