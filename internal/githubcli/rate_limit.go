package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jon-the-dev/repofleet/internal/execshell"
)

const (
	rateLimitEndpointConstant                = "rate_limit"
	organizationProbeEndpointTemplate        = "orgs/%s"
	ownerRepositoriesEndpointTemplate        = "%s/%s/repos?per_page=%d&page=%d"
	ownerRepositoriesPageSizeConstant        = 100
	pageNumberFieldNameConstant              = "page_number"
	checkRateLimitOperationNameConstant      = OperationName("CheckRateLimit")
	classifyOwnerOperationNameConstant       = OperationName("ClassifyOwner")
	listOwnerRepositoriesOperationConstant   = OperationName("ListOwnerRepositoryPage")
)

type quotaWindowPayload struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Used      int   `json:"used"`
	Reset     int64 `json:"reset"`
}

func (payload quotaWindowPayload) toQuotaWindow() QuotaWindow {
	return QuotaWindow{
		Limit:     payload.Limit,
		Remaining: payload.Remaining,
		Used:      payload.Used,
		ResetAt:   time.Unix(payload.Reset, 0),
	}
}

// CheckRateLimit fetches the current core and search quota windows.
func (client *Client) CheckRateLimit(executionContext context.Context) (RateLimitSnapshot, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{apiSubcommandConstant, rateLimitEndpointConstant},
		Timeout:   shortCallTimeoutDurationConstant,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return RateLimitSnapshot{}, OperationError{Operation: checkRateLimitOperationNameConstant, Cause: executionError}
	}

	var response struct {
		Resources struct {
			Core   quotaWindowPayload `json:"core"`
			Search quotaWindowPayload `json:"search"`
		} `json:"resources"`
	}
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return RateLimitSnapshot{}, ResponseDecodingError{Operation: checkRateLimitOperationNameConstant, Cause: decodingError}
	}

	return RateLimitSnapshot{
		Core:   response.Resources.Core.toQuotaWindow(),
		Search: response.Resources.Search.toQuotaWindow(),
	}, nil
}

// ClassifyOwner determines whether the owner is an organization or a user by
// probing the organization endpoint. A failed probe classifies the owner as a
// user account.
func (client *Client) ClassifyOwner(executionContext context.Context, owner string) (OwnerType, error) {
	ownerName := strings.TrimSpace(owner)
	if len(ownerName) == 0 {
		return "", InvalidInputError{FieldName: ownerFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{apiSubcommandConstant, fmt.Sprintf(organizationProbeEndpointTemplate, ownerName)},
		Timeout:   shortCallTimeoutDurationConstant,
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(executionError, &commandFailure) {
			return UserOwnerType, nil
		}
		return "", OperationError{Operation: classifyOwnerOperationNameConstant, Cause: executionError}
	}

	return OrganizationOwnerType, nil
}

// ListOwnerRepositoryPage fetches one page of repository names for an owner at 100 items per page.
func (client *Client) ListOwnerRepositoryPage(executionContext context.Context, ownerType OwnerType, owner string, pageNumber int) ([]string, error) {
	ownerName := strings.TrimSpace(owner)
	if len(ownerName) == 0 {
		return nil, InvalidInputError{FieldName: ownerFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if pageNumber <= 0 {
		return nil, InvalidInputError{FieldName: pageNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(ownerRepositoriesEndpointTemplate, ownerType.PathSegment(), ownerName, ownerRepositoriesPageSizeConstant, pageNumber),
		},
		Timeout: listingCallTimeoutDurationConstant,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listOwnerRepositoriesOperationConstant, Cause: executionError}
	}

	var response []struct {
		FullName string `json:"full_name"`
	}
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listOwnerRepositoriesOperationConstant, Cause: decodingError}
	}

	repositoryNames := make([]string, 0, len(response))
	for _, repositoryEntry := range response {
		repositoryNames = append(repositoryNames, repositoryEntry.FullName)
	}
	return repositoryNames, nil
}
