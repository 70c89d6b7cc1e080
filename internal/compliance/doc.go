// Package compliance implements the repository standards audit workflow.
//
// Repositories are checked against a standard file table and label set,
// scored with a weighted formula, and the results are written as a JSON
// report. Optional remediation creates missing labels and files tracking
// issues for the remaining gaps.
package compliance
