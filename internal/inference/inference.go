// Package inference defines the boundary to the external vision-language
// backend. The application core depends only on the Client interface;
// concrete transports live in subpackages.
package inference

import "context"

// Client defines the interface for one inference call: a text instruction
// plus a single base64-embedded image, answered with the backend's raw
// free-text reply. Implementations make exactly one outbound call per
// invocation and do not retry; a failed call is the caller's data, not a
// process fault.
type Client interface {
	// Complete sends the instruction and image to the backend and returns
	// the raw reply text.
	//
	// Parameters:
	//   - ctx: Context for the operation, carrying the per-call timeout
	//   - instruction: The instruction text for the model
	//   - imageDataURL: The image as a data:image/jpeg;base64,... URL
	//
	// Returns the reply text, or an error wrapping domain.ErrExecution on
	// transport failure, non-2xx response, or an empty/undecodable reply.
	Complete(ctx context.Context, instruction, imageDataURL string) (string, error)
}
