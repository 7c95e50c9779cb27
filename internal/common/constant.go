package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultPageSize is the number of credentials returned per page when the
// caller does not ask for a specific limit.
const DefaultPageSize = 5

// MaxPageSize caps caller-provided page limits.
const MaxPageSize = 100
