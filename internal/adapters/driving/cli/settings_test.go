package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

func TestSettingsCmd_Use(t *testing.T) {
	assert.Equal(t, "settings", settingsCmd.Use)
}

func TestSettingsCmd_HasSubcommands(t *testing.T) {
	commands := settingsCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "show")
	assert.Contains(t, commandNames, "wizard")
	assert.Contains(t, commandNames, "backend")
	assert.Contains(t, commandNames, "validate")
}

func TestSettingsShow_PrintsSections(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[Backend]")
	assert.Contains(t, buf.String(), "[Remote]")
	assert.Contains(t, buf.String(), "[Local]")
	assert.Contains(t, buf.String(), "[Retrieval]")
	assert.Contains(t, buf.String(), "[Generation]")
}

func TestSettingsShow_MasksAPIKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := settingsService.(*mockSettingsService)
	mock.settings.Backend.Remote.APIKey = "sk-abcdef1234567890"

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "sk-abcdef1234567890")
	assert.Contains(t, buf.String(), "sk-a...7890")
}

func TestSettingsBackend_SetsPreference(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "backend", "local"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	mock := settingsService.(*mockSettingsService)
	assert.Equal(t, domain.BackendPreferenceLocal, mock.preference)
	assert.Contains(t, buf.String(), "Backend preference set to: local")
}

func TestSettingsBackend_RejectsInvalidPreference(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings", "backend", "mainframe"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set backend preference")
}

func TestSettingsValidate_AllOK(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "validate"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Configuration is valid.")
}

func TestSettingsValidate_RemoteFails(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := settingsService.(*mockSettingsService)
	mock.remoteErr = errors.New("remote backend unreachable")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings", "validate"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, buf.String(), "FAILED: remote backend unreachable")
	assert.Contains(t, buf.String(), "Local backend... OK")
}

func TestSettings_ServiceNotConfigured(t *testing.T) {
	oldService := settingsService
	settingsService = nil
	defer func() {
		settingsService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

func TestMaskAPIKey_ShortKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
}

func TestMaskAPIKey_LongKey(t *testing.T) {
	assert.Equal(t, "sk-a...wxyz", maskAPIKey("sk-abcdefghijklmnopqrstuvwxyz"))
}

func TestParseChoice(t *testing.T) {
	assert.Equal(t, 1, parseChoice("", 3, 1))
	assert.Equal(t, 2, parseChoice("2", 3, 1))
	assert.Equal(t, 1, parseChoice("7", 3, 1))
	assert.Equal(t, 1, parseChoice("nope", 3, 1))
}
