package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArchiveFolder(t *testing.T) {
	// Struktura: Raporty/q1.csv + pusty podkatalog Raporty/Archiwum
	srcDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(srcDir, "Archiwum"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "q1.csv"), []byte("a,b,c\n1,2,3\n"), 0o644))

	archivePath, err := ArchiveFolder(srcDir, "Raporty")
	require.NoError(t, err)
	defer os.Remove(archivePath)

	reader, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer reader.Close()

	entries := make(map[string]*zip.File)
	for _, f := range reader.File {
		entries[f.Name] = f
	}

	// Wpisy zakorzenione pod nazwą folderu
	require.Contains(t, entries, "Raporty/")
	require.Contains(t, entries, "Raporty/q1.csv")
	// Pusty podkatalog ma jawny wpis
	require.Contains(t, entries, "Raporty/Archiwum/")

	file := entries["Raporty/q1.csv"]
	rc, err := file.Open()
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	require.Equal(t, "a,b,c\n1,2,3\n", string(content))
}

func TestArchiveFolder_NestedTree(t *testing.T) {
	srcDir := t.TempDir()
	nested := filepath.Join(srcDir, "A", "B")
	require.NoError(t, os.MkdirAll(nested, os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "gleboki.txt"), []byte("x"), 0o644))

	archivePath, err := ArchiveFolder(srcDir, "Dane")
	require.NoError(t, err)
	defer os.Remove(archivePath)

	reader, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	require.Contains(t, names, "Dane/A/B/gleboki.txt")
}

func TestArchiveFolder_MissingSourceCleansUp(t *testing.T) {
	tmpBefore := listTempArchives(t)

	_, err := ArchiveFolder(filepath.Join(t.TempDir(), "nie_istnieje"), "X")
	require.Error(t, err)

	// Po błędzie nie zostaje niedokończony artefakt
	require.Equal(t, tmpBefore, listTempArchives(t))
}

func TestSuggestedFilename(t *testing.T) {
	require.Equal(t, "Raporty.zip", SuggestedFilename("Raporty"))
	require.Equal(t, "folder.zip", SuggestedFilename("  "))
}

func listTempArchives(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "folder-*.zip"))
	require.NoError(t, err)
	return matches
}
