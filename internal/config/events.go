package config // greeting event publishing settings

// DefaultEventsQueue is the queue greeting events are published to.
const DefaultEventsQueue = "greeting.issued"

// EventsConfig points the publisher and the auditor at RabbitMQ.
type EventsConfig struct {
	URL   string
	Queue string
}

// LoadEventsConfig reads RABBITMQ_URL (or AMQP_URL) and EVENTS_QUEUE.
func LoadEventsConfig() EventsConfig {
	return EventsConfig{
		URL:   firstEnv("RABBITMQ_URL", "AMQP_URL"),
		Queue: envStr("EVENTS_QUEUE", DefaultEventsQueue),
	}
}

// Enabled reports whether a broker URL was configured.
func (c EventsConfig) Enabled() bool { return c.URL != "" }
