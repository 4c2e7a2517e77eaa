package publisher

// Publisher pushes serialized cheap-car predictions downstream.
type Publisher interface {
	// Publish publishes one prediction payload
	Publish(message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
