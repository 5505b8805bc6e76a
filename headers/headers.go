// Package headers defines HTTP header constants used across the Mindxandria SDK.
package headers

const (
	// RequestID is the header for request correlation. The SDK stamps every
	// outgoing request so the original call and its 401-triggered reissue can
	// be tied together in server logs.
	RequestID = "X-Request-Id"
)
