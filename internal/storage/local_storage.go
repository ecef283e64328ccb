package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// MaterializeFolder tworzy fizyczny katalog pod podaną ścieżką.
// Istniejący katalog nie jest błędem.
func (ls *LocalStorage) MaterializeFolder(path string) error {
	return os.MkdirAll(path, os.ModePerm)
}

// WriteFile zapisuje dane do pliku tymczasowego w katalogu docelowym,
// a potem podmienia go atomowo pod docelową nazwą. Współbieżny czytelnik
// nigdy nie zobaczy częściowo zapisanego pliku; po nieudanym zapisie pod
// docelową ścieżką nie zostaje nic (ewentualny plik tymczasowy to śmieć,
// nie uszkodzone dane).
func (ls *LocalStorage) WriteFile(dir, filename string, data io.Reader) (int64, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(tmp, data)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}

	finalPath := filepath.Join(dir, filename)
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}

	return written, nil
}

func (ls *LocalStorage) Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file at %s not found: %w", path, err)
		}
		return nil, err
	}
	return file, nil
}

// RemoveFile usuwa fizyczny plik; brak pliku jest tolerowany — katalog
// w bazie jest źródłem prawdy, dysk może być w tyle po wcześniejszej awarii.
func (ls *LocalStorage) RemoveFile(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// RemoveFolderRecursive usuwa katalog z całą zawartością; brak katalogu
// jest tolerowany.
func (ls *LocalStorage) RemoveFolderRecursive(path string) error {
	err := os.RemoveAll(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
