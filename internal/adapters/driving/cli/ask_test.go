package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

func resetAskFlags() {
	askNoRAG = false
	askGraph = false
	askEntities = false
	askCollections = nil
	askBackend = ""
	askLanguage = ""
	askFree = false
	askPreset = ""
	askModel = ""
	askLimit = 0
	askTimeout = 0
	askJSON = false
	askExplain = false
}

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_StreamsAnswer(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetAskFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "when was the treaty signed?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "The treaty was signed in 1648.")
}

func TestAskCmd_NoRAGDisablesRetrieval(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetAskFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "--no-rag", "hello"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	mock := answerService.(*mockAnswerService)
	assert.False(t, mock.lastOpts.Retrieval)
}

func TestAskCmd_ForwardsFilters(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetAskFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "--graph", "--collection", "letters", "-n", "4", "who negotiated?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	mock := answerService.(*mockAnswerService)
	assert.True(t, mock.lastOpts.Retrieval)
	assert.True(t, mock.lastOpts.Filters.GraphExpansion)
	assert.Equal(t, []string{"letters"}, mock.lastOpts.Filters.Collections)
	assert.Equal(t, 4, mock.lastOpts.Filters.Limit)
}

func TestAskCmd_BackendAndLanguage(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetAskFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "--backend", "local", "--language", "de", "--preset", "factual", "frage"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	mock := answerService.(*mockAnswerService)
	assert.Equal(t, domain.BackendPreferenceLocal, mock.lastOpts.Backend)
	assert.Equal(t, domain.PromptLanguageGerman, mock.lastOpts.Language)
	assert.Equal(t, domain.SamplingFactual, mock.lastOpts.Preset)
}

func TestAskCmd_RejectsUnknownBackend(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetAskFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "--backend", "mainframe", "q"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestAskCmd_RejectsUnknownLanguage(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetAskFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "--language", "fr", "q"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown language")
}

func TestAskCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetAskFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "--json", "when?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"Response\"")
	assert.Contains(t, buf.String(), "\"UsedRetrieval\"")
}

func TestAskCmd_ExplainPrintsTrace(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetAskFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "--explain", "when?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "how this answer was produced")
	assert.Contains(t, buf.String(), "doc-1")
}

func TestAskCmd_ServiceNotConfigured(t *testing.T) {
	oldService := answerService
	answerService = nil
	defer func() {
		answerService = oldService
	}()
	defer resetAskFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "q"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "answer service not configured")
}

func TestAskCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetAskFlags()

	answerService = &mockAnswerServiceError{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "q"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ask failed")
}
