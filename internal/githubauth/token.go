package githubauth

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	tokenMissingMessageConstant           = "no GitHub token found; set GH_TOKEN, GITHUB_TOKEN, or GITHUB_API_TOKEN"
	primaryTokenEnvironmentNameConstant   = "GH_TOKEN"
	secondaryTokenEnvironmentNameConstant = "GITHUB_TOKEN"
	legacyAPITokenEnvironmentNameConstant = "GITHUB_API_TOKEN"
	defaultEnvironmentFileNameConstant    = ".env"
)

// ErrTokenMissing indicates no token was supplied and none of the known
// environment variables are set.
var ErrTokenMissing = errors.New(tokenMissingMessageConstant)

// tokenEnvironmentNames lists the environment variables consulted in
// precedence order.
var tokenEnvironmentNames = []string{
	primaryTokenEnvironmentNameConstant,
	secondaryTokenEnvironmentNameConstant,
	legacyAPITokenEnvironmentNameConstant,
}

// EnvironmentLookup resolves an environment variable by name.
type EnvironmentLookup func(name string) string

// ResolveToken returns the explicit token when provided, otherwise the first
// non-empty known token environment variable.
func ResolveToken(explicitToken string, lookup EnvironmentLookup) (string, error) {
	trimmedExplicitToken := strings.TrimSpace(explicitToken)
	if len(trimmedExplicitToken) > 0 {
		return trimmedExplicitToken, nil
	}

	if lookup == nil {
		lookup = os.Getenv
	}
	for _, environmentName := range tokenEnvironmentNames {
		tokenValue := strings.TrimSpace(lookup(environmentName))
		if len(tokenValue) > 0 {
			return tokenValue, nil
		}
	}

	return "", ErrTokenMissing
}

// LoadEnvironmentFile merges variables from a dotenv file into the process
// environment. A missing default file is tolerated; a missing explicit file
// is an error.
func LoadEnvironmentFile(filePath string) error {
	trimmedFilePath := strings.TrimSpace(filePath)
	if len(trimmedFilePath) == 0 {
		trimmedFilePath = defaultEnvironmentFileNameConstant
	}

	loadError := godotenv.Load(trimmedFilePath)
	if loadError == nil {
		return nil
	}
	if os.IsNotExist(loadError) && trimmedFilePath == defaultEnvironmentFileNameConstant {
		return nil
	}
	return loadError
}
