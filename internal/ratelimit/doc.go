// Package ratelimit projects the API request volume of a planned fetch and
// gates high-volume operations on the remaining core and search quota windows.
// The projection is a best-effort heuristic derived from the first repository
// listing page; it is never reconciled against actual usage.
package ratelimit
