package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestZIP(t *testing.T, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "base.zip")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	w := zip.NewWriter(file)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestExtractZIP(t *testing.T) {
	archive := writeTestZIP(t, map[string]string{
		"base-cc-logement-2021.CSV": "CODGEO;P21_MEN\n75056;1100000\n",
		"meta/varlist.txt":          "CODGEO: code commune\n",
	})

	dest := t.TempDir()
	paths, err := ExtractZIP(archive, dest)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	content, err := os.ReadFile(filepath.Join(dest, "base-cc-logement-2021.CSV"))
	require.NoError(t, err)
	assert.Equal(t, "CODGEO;P21_MEN\n75056;1100000\n", string(content))

	content, err = os.ReadFile(filepath.Join(dest, "meta", "varlist.txt"))
	require.NoError(t, err)
	assert.Equal(t, "CODGEO: code commune\n", string(content))
}

func TestExtractZIPRejectsTraversal(t *testing.T) {
	archive := writeTestZIP(t, map[string]string{
		"../evil.txt": "escaped",
	})

	dest := t.TempDir()
	_, err := ExtractZIP(archive, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal path")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "evil.txt"))
}

func TestFirstWithExt(t *testing.T) {
	paths := []string{
		"/tmp/out/lisez-moi.pdf",
		"/tmp/out/base-cc-logement-2021.CSV",
		"/tmp/out/meta.txt",
	}

	got, err := FirstWithExt(paths, ".csv")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out/base-cc-logement-2021.CSV", got)

	_, err = FirstWithExt(paths, ".xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .xlsx file")
}
