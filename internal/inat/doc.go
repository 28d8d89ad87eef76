// Package inat is a small read-only client for the iNaturalist v1 API. It
// resolves species and place names to numeric identifiers and pages through
// observation search results. Every API call passes through a rate limiter so
// the client never issues two requests closer together than the configured
// delay; photo downloads are not part of this package and are not limited.
package inat
