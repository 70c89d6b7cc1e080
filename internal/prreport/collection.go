package prreport

import (
	"fmt"
	"sort"

	"github.com/jon-the-dev/repofleet/internal/githubcli"
)

const collectionKeyTemplateConstant = "%s#%d"

// Collection accumulates pull requests from multiple fetch paths and
// deduplicates them by repository and number. When both paths see the same
// pull request, the record added last replaces the earlier one.
type Collection struct {
	recordsByKey map[string]githubcli.PullRequestSummary
}

// NewCollection constructs an empty Collection.
func NewCollection() *Collection {
	return &Collection{recordsByKey: make(map[string]githubcli.PullRequestSummary)}
}

// Add stores one pull request, replacing any record with the same key.
func (collection *Collection) Add(pullRequest githubcli.PullRequestSummary) {
	collection.recordsByKey[collectionKey(pullRequest)] = pullRequest
}

// AddAll stores every provided pull request in order.
func (collection *Collection) AddAll(pullRequests []githubcli.PullRequestSummary) {
	for _, pullRequest := range pullRequests {
		collection.Add(pullRequest)
	}
}

// Size returns the number of unique pull requests collected.
func (collection *Collection) Size() int {
	return len(collection.recordsByKey)
}

// Records returns the unique pull requests ordered by repository then number.
func (collection *Collection) Records() []githubcli.PullRequestSummary {
	records := make([]githubcli.PullRequestSummary, 0, len(collection.recordsByKey))
	for _, record := range collection.recordsByKey {
		records = append(records, record)
	}
	sort.Slice(records, func(firstIndex int, secondIndex int) bool {
		if records[firstIndex].Repository != records[secondIndex].Repository {
			return records[firstIndex].Repository < records[secondIndex].Repository
		}
		return records[firstIndex].Number < records[secondIndex].Number
	})
	return records
}

func collectionKey(pullRequest githubcli.PullRequestSummary) string {
	return fmt.Sprintf(collectionKeyTemplateConstant, pullRequest.Repository, pullRequest.Number)
}
