package di

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/email-triage/internal/adapters/inbound"
	"github.com/mikey/email-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContainer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedding:
  provider: none
attachments:
  enabled: false
server:
  scenarios_path: `+filepath.Join(dir, "none.json")+`
logging:
  level: error
`), 0o644))

	container, err := BuildContainer(path)
	require.NoError(t, err)

	err = container.Invoke(func(api *inbound.HTTPAPI, smtp *inbound.SMTPIngest, svc *core.TriageService, res Resources) {
		require.NotNil(t, api)
		assert.Nil(t, smtp, "smtp ingest is disabled by default")
		assert.NotNil(t, svc)
		defer res.Release()

		rec := httptest.NewRecorder()
		api.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var health inbound.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		assert.Equal(t, "ok", health.Status)
		require.NotNil(t, health.Threads)
		assert.Equal(t, 0, *health.Threads)
		assert.Equal(t, map[string]string{"llm.huggingface": "closed"}, health.Breakers)
	})
	require.NoError(t, err)
}

func TestBuildContainerRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  confidence_threshold: 1.5\n"), 0o644))

	container, err := BuildContainer(path)
	require.NoError(t, err)
	assert.Error(t, container.Invoke(func(*core.TriageService) {}))
}

func TestBuildCLIContainer(t *testing.T) {
	flags := &CLIFlags{EmbeddingProvider: "none", Threshold: 0.7, Store: "memory"}
	container, err := BuildCLIContainer(flags)
	require.NoError(t, err)

	err = container.Invoke(func(runner *inbound.CLIRunner, res Resources) {
		assert.NotNil(t, runner)
		res.Release()
	})
	require.NoError(t, err)
}
