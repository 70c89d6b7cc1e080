package cli_test

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jon-the-dev/repofleet/cmd/cli"
)

const (
	testDashboardCommandNameConstant  = "dashboard"
	testMergeSafeCommandNameConstant  = "merge-safe"
	testPRReportCommandNameConstant   = "pr-report"
	testComplianceCommandNameConstant = "compliance"
)

func TestNewApplicationRegistersEveryCommand(testInstance *testing.T) {
	application := cli.NewApplication()
	rootCommand := application.RootCommand()

	registeredNames := map[string]bool{}
	for _, command := range rootCommand.Commands() {
		registeredNames[command.Name()] = true
	}

	require.True(testInstance, registeredNames[testDashboardCommandNameConstant])
	require.True(testInstance, registeredNames[testMergeSafeCommandNameConstant])
	require.True(testInstance, registeredNames[testPRReportCommandNameConstant])
	require.True(testInstance, registeredNames[testComplianceCommandNameConstant])
}

func TestEmbeddedDefaultConfigurationIsValidYAML(testInstance *testing.T) {
	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", configurationType)

	var document map[string]any
	require.NoError(testInstance, yaml.Unmarshal(configurationData, &document))
	require.Contains(testInstance, document, "common")
	require.Contains(testInstance, document, "tools")
}

func TestEmbeddedDefaultConfigurationDecodes(testInstance *testing.T) {
	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()

	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)
	require.NoError(testInstance, viperInstance.ReadConfig(bytes.NewReader(configurationData)))

	var configuration cli.ApplicationConfiguration
	require.NoError(testInstance, viperInstance.Unmarshal(&configuration))

	require.Equal(testInstance, "info", configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", configuration.Common.LogFormat)
	require.Equal(testInstance, "github_repos_report.html", configuration.Tools.Dashboard.OutputPath)
	require.Equal(testInstance, 8, configuration.Tools.Dashboard.WorkerCount)
	require.Equal(testInstance, 200, configuration.Tools.MergeSafe.SearchLimit)
	require.Equal(testInstance, "open_prs_report.md", configuration.Tools.PRReport.OutputPath)
	require.Equal(testInstance, 10, configuration.Tools.PRReport.WorkerCount)
	require.Equal(testInstance, "audit_report.json", configuration.Tools.Compliance.OutputPath)
}
