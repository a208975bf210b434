// Package labeler generates image descriptions with a vision chat model
// served through an OpenRouter-compatible API.
//
// Client implements metadata.Labeler. Each call inlines the image as a
// base64 data URL and asks for a JSON reply of the form {"label": "..."}.
// Requests that time out, are rate limited, or hit 5xx responses are retried
// with exponential backoff, honoring Retry-After when the server sends it.
package labeler
