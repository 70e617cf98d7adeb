package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure backends, retrieval behaviour, and generation
options. Use subcommands to change specific settings or run the
interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure backends step by step.`,
	RunE:  runSettingsWizard,
}

var settingsBackendCmd = &cobra.Command{
	Use:   "backend [remote|local|auto]",
	Short: "Set the backend preference",
	Long: `Set which backend serves generation requests.

Available preferences:
  remote - Always use the remote API (fails when unreachable)
  local  - Always use the local model daemon
  auto   - Prefer remote, fall back to local when remote is down`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsBackend,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the stored backend configuration",
	RunE:  runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsBackendCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings := settingsService.Get()

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Backend]")
	cmd.Printf("  Preference: %s\n", settings.Backend.Preference)
	cmd.Println()

	cmd.Println("[Remote]")
	cmd.Printf("  Base URL: %s\n", settings.Backend.Remote.BaseURL)
	cmd.Printf("  Model: %s\n", settings.Backend.Remote.Model)
	cmd.Printf("  Embedding Model: %s\n", settings.Backend.Remote.EmbeddingModel)
	if settings.Backend.Remote.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Backend.Remote.APIKey))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
	status := "configured"
	if !settings.Backend.Remote.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Local]")
	cmd.Printf("  Base URL: %s\n", settings.Backend.Local.BaseURL)
	if settings.Backend.Local.Model != "" {
		cmd.Printf("  Model: %s\n", settings.Backend.Local.Model)
	} else {
		cmd.Printf("  Model: (whichever is loaded)\n")
	}
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Limit: %d\n", settings.Retrieval.Limit)
	cmd.Printf("  Score Threshold: %g\n", settings.Retrieval.ScoreThreshold)
	cmd.Printf("  Cache: %d entries, %s TTL\n", settings.Retrieval.CacheCapacity, settings.Retrieval.CacheTTL)
	cmd.Printf("  Graph Expansion: %s\n", onOff(settings.Retrieval.GraphExpansion))
	cmd.Printf("  Entity Boost: %s\n", onOff(settings.Retrieval.EntityBoost))
	cmd.Println()

	cmd.Println("[Generation]")
	cmd.Printf("  Timeout: %s\n", settings.Generation.Timeout)
	cmd.Printf("  Context Budget: %d chars\n", settings.Generation.ContextBudgetChars)
	cmd.Printf("  Preset: %s\n", settings.Generation.Preset)
	cmd.Printf("  Language: %s\n", settings.Generation.Language.Description())

	return nil
}

func runSettingsBackend(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	pref := domain.BackendPreference(args[0])
	if err := settingsService.SetBackendPreference(pref); err != nil {
		return fmt.Errorf("failed to set backend preference: %w", err)
	}

	cmd.Printf("Backend preference set to: %s\n", pref)
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	ok := true

	cmd.Print("Remote backend... ")
	if err := settingsService.ValidateRemote(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		ok = false
	} else {
		cmd.Println("OK")
	}

	cmd.Print("Local backend... ")
	if err := settingsService.ValidateLocal(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		ok = false
	} else {
		cmd.Println("OK")
	}

	if !ok {
		return errors.New("configuration validation failed")
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Arkivist Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	reader := bufio.NewReader(os.Stdin)
	settings := settingsService.Get()

	// Step 1: backend preference
	cmd.Println("Step 1: Backend Preference")
	cmd.Println("--------------------------")
	prefs := []domain.BackendPreference{
		domain.BackendPreferenceAuto,
		domain.BackendPreferenceRemote,
		domain.BackendPreferenceLocal,
	}
	for i, p := range prefs {
		cmd.Printf("  %d. %s\n", i+1, p)
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(prefs), 1)
	settings.Backend.Preference = prefs[idx-1]
	cmd.Printf("Backend preference: %s\n\n", settings.Backend.Preference)

	// Step 2: remote backend
	cmd.Println("Step 2: Remote Backend")
	cmd.Println("----------------------")
	cmd.Printf("Base URL [%s]: ", settings.Backend.Remote.BaseURL)
	if v := readLine(reader); v != "" {
		settings.Backend.Remote.BaseURL = v
	}
	cmd.Printf("Model [%s]: ", settings.Backend.Remote.Model)
	if v := readLine(reader); v != "" {
		settings.Backend.Remote.Model = v
	}
	cmd.Printf("Embedding model [%s]: ", settings.Backend.Remote.EmbeddingModel)
	if v := readLine(reader); v != "" {
		settings.Backend.Remote.EmbeddingModel = v
	}
	cmd.Print("API key (leave empty to keep current): ")
	apiKey := readPassword()
	cmd.Println()
	if apiKey != "" {
		settings.Backend.Remote.APIKey = apiKey
	}
	cmd.Println()

	// Step 3: local backend
	cmd.Println("Step 3: Local Backend")
	cmd.Println("---------------------")
	cmd.Printf("Base URL [%s]: ", settings.Backend.Local.BaseURL)
	if v := readLine(reader); v != "" {
		settings.Backend.Local.BaseURL = v
	}
	cmd.Printf("Model (empty = use loaded model) [%s]: ", settings.Backend.Local.Model)
	if v := readLine(reader); v != "" {
		settings.Backend.Local.Model = v
	}
	cmd.Println()

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if settings.Backend.Remote.IsConfigured() {
		cmd.Print("Validating remote backend... ")
		if err := settingsService.ValidateRemote(); err != nil {
			cmd.Printf("WARNING: %v\n", err)
		} else {
			cmd.Println("OK")
		}
	}
	cmd.Print("Validating local backend... ")
	if err := settingsService.ValidateLocal(); err != nil {
		cmd.Printf("WARNING: %v\n", err)
	} else {
		cmd.Println("OK")
	}
	cmd.Println("Settings saved.")

	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read the key without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
