package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashclose/internal/accounts"
	"github.com/cleared-dev/cashclose/internal/config"
	"github.com/cleared-dev/cashclose/internal/denominations"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "cashclose-test-*")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmpDir, "cashclose")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/cashclose")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func runCashclose(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "CASHCLOSE_USER=", "NO_COLOR=1")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func initRepo(t *testing.T, entities ...string) string {
	t.Helper()
	dir := t.TempDir()
	args := []string{"init", dir}
	for _, e := range entities {
		args = append(args, "--entity", e)
	}
	out, err := runCashclose(t, args...)
	require.NoError(t, err, out)
	return dir
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initRepo(t, "ACME:VES:Acme Stores")

	for _, d := range []string{"accounts", "denominations", "closes", "logs", "signatures"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := initRepo(t, "acme:ves:Acme Stores", "BETA:USD")

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME", "BETA"}, cfg.EntityCodes())

	acme, ok := cfg.Entity("ACME")
	require.True(t, ok)
	assert.Equal(t, "Acme Stores", acme.Name)
	assert.Equal(t, "VES", acme.LocalCurrency)
	assert.True(t, cfg.Ledger.DualCurrency)
	assert.Equal(t, config.DriverFile, cfg.Storage.Driver)
}

func TestInit_AccountsAndDenominations(t *testing.T) {
	dir := initRepo(t, "ACME:VES", "BETA:USD")

	svc, err := accounts.Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc.All(), 10, "five starter accounts per entity")
	assert.Len(t, svc.CashAccounts("ACME"), 2)
	assert.Len(t, svc.BankAccounts("BETA"), 1)

	catalog, err := denominations.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR", "USD", "VES"}, catalog.Currencies())
}

func TestInit_GitRepo(t *testing.T) {
	dir := initRepo(t, "ACME:VES")

	log := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Equal(t, "init: cash close for ACME|Cash Close <cashclose@localhost>\n", string(out))

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ".env")
}

func TestInit_RequiresEntity(t *testing.T) {
	_, err := runCashclose(t, "init", t.TempDir())
	require.Error(t, err, "init without --entity should fail")
}

func TestInit_RejectsMalformedEntity(t *testing.T) {
	out, err := runCashclose(t, "init", t.TempDir(), "--entity", "ACME")
	require.Error(t, err)
	assert.Contains(t, out, "CODE:CURRENCY")
}

func TestInit_RefusesExistingRepo(t *testing.T) {
	dir := initRepo(t, "ACME:VES")
	out, err := runCashclose(t, "init", dir, "--entity", "ACME:VES")
	require.Error(t, err)
	assert.Contains(t, out, "already exists")
}
