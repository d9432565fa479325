// Package common contains shared constants and sentinel errors used across
// LegacyLink components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the owner
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"
