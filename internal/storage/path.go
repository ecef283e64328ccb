package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"drzewo-plikow/internal/models"
)

var ErrInvalidName = errors.New("invalid file or folder name")

// CleanSegment odrzuca nazwy, które mogłyby wyjść poza katalog użytkownika.
// Puste segmenty (np. z wiodącego ukośnika w relative_path) zgłaszamy jako
// błąd — warstwa wyżej decyduje, czy je pominąć.
func CleanSegment(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if name == "." || name == ".." {
		return "", ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\") {
		return "", ErrInvalidName
	}
	if strings.ContainsRune(name, 0) {
		return "", ErrInvalidName
	}
	return name, nil
}

// OwnerRoot zwraca prywatny katalog konta: <base>/user_<id>.
func OwnerRoot(basePath string, ownerID int64) string {
	return filepath.Join(basePath, fmt.Sprintf("user_%d", ownerID))
}

// ResolvePath składa fizyczną ścieżkę noda z łańcucha przodków
// (uporządkowanego od noda do korzenia, jak zwraca GetAncestorChain).
// Pusty łańcuch oznacza katalog główny właściciela. Funkcja jest czysta —
// nie dotyka dysku ani bazy.
func ResolvePath(basePath string, ownerID int64, chain []models.Node) string {
	path := OwnerRoot(basePath, ownerID)
	for i := len(chain) - 1; i >= 0; i-- {
		path = filepath.Join(path, chain[i].Name)
	}
	return path
}
