package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "growthrec", cmd.Use)
	assert.Contains(t, cmd.Long, "encryption")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "members", "records", "export", "import", "sync", "settings"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	portFlag := serve.Flags().Lookup("port")
	require.NotNil(t, portFlag)
	assert.Equal(t, "p", portFlag.Shorthand)
}

func TestLogLevelSetsDefaultLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, err := execute(t, "--db", "", "--log-level", "debug", "members")
	require.NoError(t, err)
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	_, err = execute(t, "--db", "", "--log-level", "error", "members")
	require.NoError(t, err)
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelWarn))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--db", "", "--format", "yaml", "members")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMembersRecordsExportImport(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "family.db")

	out, err := execute(t, "--db", db, "members", "add", "--name", "Mia", "--gender", "female", "--birth", "2023-01-15")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	_, err = execute(t, "--db", db, "members", "add", "--name", "", "--gender", "female", "--birth", "2023-01-15")
	assert.True(t, errors.Is(err, model.ErrValidation), "empty name error = %v", err)

	_, err = execute(t, "--db", db, "records", "add", id, "--date", "2024-01-15", "--height", "75", "--weight", "9.5")
	require.NoError(t, err)
	_, err = execute(t, "--db", db, "records", "add", id, "--date", "2024-02-15", "--height", "0", "--weight", "9.5")
	assert.True(t, errors.Is(err, model.ErrInvalidMeasurement), "zero height error = %v", err)

	out, err = execute(t, "--db", db, "--format", "json", "records", id)
	require.NoError(t, err)
	var records []model.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, 16.9, records[0].BMI)
	assert.Equal(t, 12, records[0].AgeMonths)

	out, err = execute(t, "--db", db, "members")
	require.NoError(t, err)
	assert.Contains(t, out, "Mia")
	assert.Contains(t, out, "75.0")

	exported := filepath.Join(dir, "export.json")
	_, err = execute(t, "--db", db, "export", "-o", exported, "--passphrase", "pw")
	require.NoError(t, err)
	_, err = os.Stat(exported)
	require.NoError(t, err)

	other := filepath.Join(dir, "other.db")
	_, err = execute(t, "--db", other, "import", exported, "--passphrase", "wrong")
	assert.True(t, errors.Is(err, model.ErrDecryption), "wrong passphrase error = %v", err)

	out, err = execute(t, "--db", other, "import", exported, "--passphrase", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "members: 1 added, 0 replaced, 0 kept")
	assert.Contains(t, out, "records: 1 added, 0 replaced, 0 kept")

	out, err = execute(t, "--db", other, "--format", "json", "members")
	require.NoError(t, err)
	assert.Contains(t, out, id)
}

func TestExportToStdout(t *testing.T) {
	out, err := execute(t, "--db", "", "export", "-o", "-")
	require.NoError(t, err)
	var p model.ExportPayload
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, model.ExportVersion, p.Version)
	assert.Empty(t, p.Members)
}

func TestSyncRequiresConfiguration(t *testing.T) {
	_, err := execute(t, "--db", "", "sync", "upload")
	assert.True(t, errors.Is(err, model.ErrValidation), "sync error = %v", err)

	_, err = execute(t, "--db", "", "sync", "sideways")
	assert.True(t, errors.Is(err, model.ErrValidation), "direction error = %v", err)
}

func TestSettingsRemoteAndPassphrase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "family.db")

	_, err := execute(t, "--db", db, "settings", "remote", "--driver", "ftp")
	assert.True(t, errors.Is(err, model.ErrValidation), "bad driver error = %v", err)

	_, err = execute(t, "--db", db, "settings", "remote", "--driver", "webdav",
		"--url", "https://dav.example.com/growth", "--username", "mia", "--password", "s3cret")
	require.NoError(t, err)

	// Leaving out --password keeps the stored one.
	out, err := execute(t, "--db", db, "settings", "remote", "--url", "https://dav.example.com/family")
	require.NoError(t, err)
	assert.Contains(t, out, "webdav remote configured")

	_, err = execute(t, "--db", db, "settings", "passphrase", "family-pass")
	require.NoError(t, err)

	out, err = execute(t, "--db", db, "--format", "json", "settings")
	require.NoError(t, err)
	assert.NotContains(t, out, "s3cret")
	assert.NotContains(t, out, "family-pass")

	var view struct {
		Remote  model.RemoteConfig `json:"remote"`
		CanSync bool               `json:"canSync"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "https://dav.example.com/family", view.Remote.URL)
	assert.Equal(t, "***", view.Remote.Password)
	assert.True(t, view.CanSync)
}

func TestSettingsPassphraseFromStdin(t *testing.T) {
	db := filepath.Join(t.TempDir(), "family.db")

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("from-stdin\n"))
	cmd.SetArgs([]string{"--db", db, "settings", "passphrase"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "passphrase set")

	cmd = NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"--db", db, "settings", "passphrase"})
	assert.Error(t, cmd.Execute())
}
