// Package tlsroots builds the TLS configuration the API client dials with:
// system roots, optional extra CA certificates and an optional client
// certificate for gateways that require mutual TLS.
package tlsroots
