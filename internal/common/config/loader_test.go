// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"onboarding-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
camunda:
  broker_address: ${TEST_ZEEBE_ADDRESS}
database:
  postgres:
    host: localhost
    database: onboarding
    user: ${TEST_DB_USER}
  redis:
    address: localhost:6379
  elasticsearch:
    addresses:
      - ${TEST_ES_URL}
workers:
  calculate-form-completion:
    enabled: true
  create-crm-lead:
    enabled: false
    max_jobs_active: 2
    timeout: 45000
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_ExpandsAndDefaults(t *testing.T) {
	t.Setenv("TEST_ZEEBE_ADDRESS", "zeebe:26500")
	t.Setenv("TEST_DB_USER", "onboarding")
	t.Setenv("TEST_ES_URL", "http://es:9200")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "onboarding", cfg.Database.Postgres.User)
	assert.Equal(t, "http://es:9200", cfg.Database.Elasticsearch.GetURL())
	assert.Equal(t, "client-profiles", cfg.Database.Elasticsearch.ProfileIndex)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)

	assert.Equal(t, models.DefaultStepNames, cfg.Completion.StepNames)
	assert.Equal(t, 1024, cfg.Completion.MemoSize)
	assert.Equal(t, 24*time.Hour, cfg.Completion.CacheTTLDuration())

	assert.Equal(t, "onboarding-workers", cfg.Observability.ServiceName)
	assert.Equal(t, "configs/activity-registry.json", cfg.RegistryPath)

	calc := GetWorkerConfig(cfg, "calculate-form-completion")
	assert.True(t, calc.Enabled)
	assert.Equal(t, 5, calc.MaxJobsActive)
	assert.Equal(t, 30000, calc.Timeout)
	assert.Equal(t, 3, calc.MaxRetries)

	crm := GetWorkerConfig(cfg, "create-crm-lead")
	assert.False(t, crm.Enabled)
	assert.Equal(t, 45*time.Second, GetDuration(crm.Timeout))
	assert.False(t, IsWorkerEnabled(cfg, "create-crm-lead"))
	assert.True(t, IsWorkerEnabled(cfg, "index-client-profile"))
}

func TestLoadFromFile_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("TEST_ZEEBE_ADDRESS", "zeebe:26500")
	t.Setenv("TEST_DB_USER", "")
	t.Setenv("TEST_ES_URL", "http://es:9200")
	t.Setenv("DB_USER", "from-env")
	t.Setenv("ZOHO_CRM_API_KEY", "zoho-key")
	t.Setenv("AGENCY_LEAD_INBOX", "leads@avaseo.com")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database.Postgres.User)
	assert.Equal(t, "zoho-key", cfg.Integrations.Zoho.APIKey)
	assert.Equal(t, "leads@avaseo.com", cfg.Notifications.AgencyInbox)
}

func TestLoadFromFile_Validation(t *testing.T) {
	t.Setenv("TEST_ZEEBE_ADDRESS", "")
	t.Setenv("TEST_DB_USER", "onboarding")
	t.Setenv("TEST_ES_URL", "http://es:9200")

	_, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camunda.broker_address is required")
}

func TestLoadFromFile_StepNamesMustCoverWizard(t *testing.T) {
	t.Setenv("TEST_ZEEBE_ADDRESS", "zeebe:26500")
	t.Setenv("TEST_DB_USER", "onboarding")
	t.Setenv("TEST_ES_URL", "http://es:9200")

	body := minimalYAML + `
completion:
  step_names: [One, Two]
`
	_, err := LoadFromFile(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion.step_names")
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{}
	got := GetWorkerConfig(cfg, "unknown")
	assert.Equal(t, WorkerConfig{Enabled: true, MaxJobsActive: 5, Timeout: 30000, MaxRetries: 3}, got)
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "onboarding", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=onboarding sslmode=disable", p.GetDSN())
}
