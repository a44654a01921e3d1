// Package push is the HTTP adapter for the mobile push provider. It
// translates a routed target and payload into the provider's topic or
// token endpoint and maps the response into a delivery outcome.
package push
