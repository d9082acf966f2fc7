// Package bitbucket talks to the Bitbucket Cloud 2.0 API.
//
// It provides the code-search client used for catalog file discovery:
// query construction, response field projection, next-URL pagination,
// rate limiting, and the Scanner that turns search hits into
// domain.DiscoveryTarget values.
package bitbucket
