package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default(EntityConfig{Code: "ACME", Name: "Acme Stores", LocalCurrency: "VES"})
	cfg.Ledger.DualCurrency = true
	cfg.Users = map[string]UserConfig{"maria": {Personnel: "emp-007"}}

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	require.Len(t, got.Entities, 1)
	assert.Equal(t, "Acme Stores", got.Entities[0].Name)
	assert.True(t, got.Ledger.DualCurrency)
	assert.Equal(t, DriverFile, got.Storage.Driver)
	assert.Equal(t, "emp-007", got.Personnel("maria"))
	assert.Equal(t, "", got.Personnel("nobody"))
	assert.True(t, got.Variance.Warning.Equal(decimal.NewFromInt(1)))
	assert.True(t, got.Variance.Critical.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, cfg.Git, got.Git)
	assert.Equal(t, "127.0.0.1:8080", got.Server.Addr)
}

func TestEntityLookup(t *testing.T) {
	cfg := Default(
		EntityConfig{Code: "ACME", Name: "Acme", LocalCurrency: "VES"},
		EntityConfig{Code: "BETA", Name: "Beta", LocalCurrency: "COP"},
	)
	e, ok := cfg.Entity("beta")
	require.True(t, ok)
	assert.Equal(t, "COP", e.LocalCurrency)

	_, ok = cfg.Entity("NOPE")
	assert.False(t, ok)
	assert.Equal(t, []string{"ACME", "BETA"}, cfg.EntityCodes())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{"ok", Default(EntityConfig{Code: "a", LocalCurrency: "ves"}), ""},
		{"missing code", Default(EntityConfig{LocalCurrency: "VES"}), "code is required"},
		{"duplicate", Default(EntityConfig{Code: "A", LocalCurrency: "VES"}, EntityConfig{Code: "a", LocalCurrency: "VES"}), "duplicate"},
		{"missing currency", Default(EntityConfig{Code: "A"}), "local_currency"},
		{"postgres without dsn", &Config{Storage: StorageConfig{Driver: DriverPostgres}}, "dsn_env"},
		{"unknown driver", &Config{Storage: StorageConfig{Driver: "mongo"}}, "unknown driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateNormalizesCodes(t *testing.T) {
	cfg := Default(EntityConfig{Code: " acme ", LocalCurrency: "ves"})
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ACME", cfg.Entities[0].Code)
	assert.Equal(t, "VES", cfg.Entities[0].LocalCurrency)
}

func TestVarianceClassify(t *testing.T) {
	v := VarianceConfig{Warning: decimal.NewFromInt(1), Critical: decimal.NewFromInt(50)}
	assert.Equal(t, VarianceOK, v.Classify(decimal.Zero))
	assert.Equal(t, VarianceOK, v.Classify(decimal.RequireFromString("0.50")))
	assert.Equal(t, VarianceWarning, v.Classify(decimal.NewFromInt(-5)))
	assert.Equal(t, VarianceCritical, v.Classify(decimal.NewFromInt(-50)))

	var none VarianceConfig
	assert.Equal(t, VarianceOK, none.Classify(decimal.Zero))
	assert.Equal(t, VarianceWarning, none.Classify(decimal.NewFromInt(1)))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadEnv(dir), "missing .env is not an error")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CASHCLOSE_TEST_DSN=postgres://x\n"), 0o600))
	t.Setenv("CASHCLOSE_TEST_DSN", "")
	os.Unsetenv("CASHCLOSE_TEST_DSN")
	require.NoError(t, LoadEnv(dir))

	cfg := &Config{Storage: StorageConfig{Driver: DriverPostgres, DSNEnv: "CASHCLOSE_TEST_DSN"}}
	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", dsn)
}

func TestDSNMissing(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Driver: DriverPostgres, DSNEnv: "CASHCLOSE_UNSET_FOR_TEST"}}
	_, err := cfg.DSN()
	require.Error(t, err)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default(EntityConfig{Code: "ACME", Name: "Acme", LocalCurrency: "VES"})
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "code: ACME")
	assert.Contains(t, contents, "local_currency: VES")
	assert.Contains(t, contents, "driver: file")
	assert.Contains(t, contents, "auto_commit: true")
}
