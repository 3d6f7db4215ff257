package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adherents/domain/core"
	"adherents/internal/config"
	"adherents/internal/container"
	"adherents/internal/errors"
)

const membersCSV = "Nom;Prénom;Début;Fin\n" +
	"Dupont;Jean;2020-01-01;2099-01-01\n" +
	"Dupont;Jean;2021-06-01;2099-01-01\n" +
	"Martin;Claire;2019-03-01;2020-03-01\n"

func newTestContainer(t *testing.T) *container.Container {
	t.Helper()
	cfg := &config.Config{
		Export: config.ExportConfig{
			Filename:     "adherent.csv",
			BannerLabel:  "Base de données",
			NameLimit:    32,
			Location:     time.UTC,
			BuildWorkers: 2,
		},
		Store:  config.StoreConfig{Driver: "memory"},
		Server: config.ServerConfig{SheetTTL: time.Minute, MaxUploadMB: 1},
		Log:    config.LogConfig{Level: "ERROR"},
	}
	c, err := container.New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Init(context.Background()))
	c.ExportService.WithClock(func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) })
	t.Cleanup(func() { c.Close() })
	return c
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "membres.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunHeaders(t *testing.T) {
	c := newTestContainer(t)
	var out bytes.Buffer

	require.NoError(t, runHeaders(context.Background(), c, writeInput(t, membersCSV), &out))

	assert.Contains(t, out.String(), "3 rows")
	assert.Contains(t, out.String(), "  Prénom\n")
	assert.Contains(t, out.String(), "Mapping (suggested):")
	assert.Contains(t, out.String(), `"start": "Début"`)
}

func TestRunExport(t *testing.T) {
	c := newTestContainer(t)
	output := filepath.Join(t.TempDir(), "adherent.csv")
	var out, errOut bytes.Buffer

	err := runExport(context.Background(), c, writeInput(t, membersCSV), exportOptions{
		asOf:   "2023-01-01",
		output: output,
	}, &out, &errOut)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t,
		"Base de données;Base de données;2024-05-01;2024-05-01\nDupont;Jean;2020-01-01;2099-01-01\n",
		string(data))
	assert.Contains(t, out.String(), "1 members exported (3 rows read, 0 skipped)")
	assert.Equal(t, "Exportation terminée.\n", errOut.String())
}

func TestRunExportFlagsOverrideMapping(t *testing.T) {
	c := newTestContainer(t)
	input := writeInput(t, "Nom;Prénom;Adhésion;Echéance\nDupont;Jean;2020-01-01;2099-01-01\n")
	output := filepath.Join(t.TempDir(), "out.csv")
	var out, errOut bytes.Buffer

	err := runExport(context.Background(), c, input, exportOptions{output: output}, &out, &errOut)
	require.Error(t, err)
	assert.Equal(t, errors.CodeIncompleteMapping, errors.GetCode(err))
	assert.NoFileExists(t, output)

	opts := exportOptions{output: output}
	opts.mapping.Start = "Adhésion"
	opts.mapping.End = "Echéance"
	require.NoError(t, runExport(context.Background(), c, input, opts, &out, &errOut))
	assert.FileExists(t, output)
}

func TestRunExportRejectsBadDate(t *testing.T) {
	c := newTestContainer(t)
	var out, errOut bytes.Buffer

	err := runExport(context.Background(), c, writeInput(t, membersCSV), exportOptions{asOf: "demain"}, &out, &errOut)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestRunHeadersUnreadableFile(t *testing.T) {
	c := newTestContainer(t)
	notes := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(notes, []byte("%PDF"), 0644))

	for _, path := range []string{filepath.Join(t.TempDir(), "absent.csv"), notes} {
		var out bytes.Buffer
		err := runHeaders(context.Background(), c, path, &out)
		require.Error(t, err, path)
		assert.Equal(t, errors.CodeUnreadableFile, errors.GetCode(err))
		assert.ErrorIs(t, err, core.ErrUnreadableFile)
		assert.Empty(t, out.String())
	}
}
