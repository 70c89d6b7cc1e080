// Package safemerge implements the automated pull request merge workflow.
//
// It evaluates every open pull request across the configured owners against a
// decision table built from merge state and status checks, merging only when
// every check has passed and falling back to auto-merge when branch policy
// rejects a direct merge.
package safemerge
