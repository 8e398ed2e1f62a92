package model

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures for the surrounding API layer. The engine itself
// performs no retry and no fallback ranking; errors propagate unchanged.
var (
	// TagInvalidInput marks validation failures that never reach the network.
	TagInvalidInput = goerr.NewTag("invalid_input")

	// TagProvider marks embedding/LLM call failures, including timeouts.
	TagProvider = goerr.NewTag("provider")

	// TagNotFound marks single-record lookup misses.
	TagNotFound = goerr.NewTag("not_found")

	// TagStore marks durable-layer failures such as connection loss.
	TagStore = goerr.NewTag("store")
)

var ErrMemoryNotFound = goerr.New("memory not found", goerr.T(TagNotFound))

// IsInvalidInput reports whether err is a validation failure.
func IsInvalidInput(err error) bool {
	return goerr.HasTag(err, TagInvalidInput)
}

// IsProviderError reports whether err originated in the embedding/LLM provider.
func IsProviderError(err error) bool {
	return goerr.HasTag(err, TagProvider)
}

// IsNotFound reports whether err is a single-record lookup miss.
func IsNotFound(err error) bool {
	return goerr.HasTag(err, TagNotFound)
}

// IsStoreError reports whether err originated in the durable layer.
func IsStoreError(err error) bool {
	return goerr.HasTag(err, TagStore)
}
