// Package archive buduje tymczasowe archiwum ZIP z fizycznego poddrzewa
// folderu. Archiwum żyje tylko na czas jednej odpowiedzi — wywołujący
// ma obowiązek usunąć je po zakończeniu streamowania.
package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
)

// ArchiveFolder pakuje zawartość srcDir do ZIP-a w katalogu tymczasowym.
// Wpisy są zakorzenione pod rootName, więc rozpakowanie odtwarza katalog
// o nazwie folderu. Puste podkatalogi dostają jawne wpisy. Każdy błąd
// w trakcie spaceru kończy całą operację i usuwa niedokończony artefakt.
func ArchiveFolder(srcDir, rootName string) (string, error) {
	archivePath := filepath.Join(os.TempDir(), "folder-"+uuid.NewString()+".zip")

	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return "", err
	}

	zw := zip.NewWriter(archiveFile)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		entryName := rootName
		if rel != "." {
			entryName = rootName + "/" + filepath.ToSlash(rel)
		}

		if d.IsDir() {
			_, err := zw.Create(entryName + "/")
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		header := &zip.FileHeader{
			Name:     entryName,
			Method:   zip.Deflate,
			Modified: info.ModTime(),
		}

		writer, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(writer, file)
		return err
	})

	if walkErr == nil {
		walkErr = zw.Close()
	} else {
		zw.Close()
	}

	if closeErr := archiveFile.Close(); walkErr == nil {
		walkErr = closeErr
	}

	if walkErr != nil {
		os.Remove(archivePath)
		return "", walkErr
	}

	return archivePath, nil
}

// SuggestedFilename zwraca nazwę pliku do nagłówka Content-Disposition.
func SuggestedFilename(folderName string) string {
	name := strings.TrimSpace(folderName)
	if name == "" {
		name = "folder"
	}
	return name + ".zip"
}
