package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"drzewo-plikow/internal/access"
	"drzewo-plikow/internal/archive"
	"drzewo-plikow/internal/auth"
	"drzewo-plikow/internal/database"
	"drzewo-plikow/internal/models"
	"drzewo-plikow/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
)

func (s *Server) generateUniqueID(ctx context.Context) (string, error) {
	maxRetries := 10

	generateID, err := nanoid.Standard(21)
	if err != nil {
		return "", fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	for i := 0; i < maxRetries; i++ {
		id := generateID()
		exists, err := s.store.NodeExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check for node existence: %w", err)
		}
		if !exists {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}

// loadAuthorized pobiera nod, jego łańcuch przodków i uprawnienia wołającego,
// po czym rozstrzyga dostęp. Zwraca (nil, nil, nil) zarówno dla nieistniejącego
// noda, jak i dla odmowy — warstwa HTTP celowo nie rozróżnia tych przypadków.
func (s *Server) loadAuthorized(ctx context.Context, claims *auth.AppClaims, nodeID string, requireWrite bool) (*models.Node, []models.Node, error) {
	chain, err := s.store.GetAncestorChain(ctx, nodeID)
	if err != nil {
		return nil, nil, err
	}
	if len(chain) == 0 {
		return nil, nil, nil
	}

	grants, err := s.store.GrantsFor(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}

	if !access.Authorize(claims, chain, grants, requireWrite) {
		return nil, nil, nil
	}

	node := chain[0]
	return &node, chain, nil
}

type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

func (s *Server) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	name, err := storage.CleanSegment(req.Name)
	if err != nil {
		http.Error(w, "Invalid folder name", http.StatusBadRequest)
		return
	}

	ownerID := claims.UserID
	var parentChain []models.Node

	if req.ParentID != nil {
		parent, chain, err := s.loadAuthorized(r.Context(), claims, *req.ParentID, true)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if parent == nil {
			http.Error(w, "Parent folder not found or you do not have permission to write to it", http.StatusNotFound)
			return
		}
		if !parent.IsFolder() {
			http.Error(w, "Parent is not a folder", http.StatusBadRequest)
			return
		}
		ownerID = parent.OwnerID
		parentChain = chain
	}

	nodeID, err := s.generateUniqueID(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dirPath := filepath.Join(storage.ResolvePath(s.storage.BasePath(), ownerID, parentChain), name)

	var node *models.Node
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		node, err = q.CreateNode(r.Context(), database.CreateNodeParams{
			ID:       nodeID,
			OwnerID:  ownerID,
			ParentID: req.ParentID,
			Name:     name,
			NodeType: models.NodeTypeFolder,
		})
		if err != nil {
			return err
		}
		// Katalog fizyczny powstaje w tej samej klamrze — gdy dysk zawiedzie,
		// wiersz w bazie jest wycofywany.
		return s.storage.MaterializeFolder(dirPath)
	})

	if txErr != nil {
		if errors.Is(txErr, database.ErrDuplicateNodeName) {
			http.Error(w, txErr.Error(), http.StatusConflict)
			return
		}
		if errors.Is(txErr, database.ErrInvalidParent) {
			http.Error(w, "Parent folder does not exist", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create folder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(node)
}

func (s *Server) ListNodesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	parentIDStr := r.URL.Query().Get("parent_id")
	sortBy := r.URL.Query().Get("sort_by")

	var parentID *string
	if parentIDStr != "" {
		parent, _, err := s.loadAuthorized(r.Context(), claims, parentIDStr, false)
		if err != nil {
			http.Error(w, "Failed to list nodes", http.StatusInternalServerError)
			return
		}
		if parent == nil {
			http.Error(w, "Folder not found or you do not have permission to access it", http.StatusNotFound)
			return
		}
		if !parent.IsFolder() {
			http.Error(w, "Node is not a folder", http.StatusBadRequest)
			return
		}
		parentID = &parentIDStr
	}

	nodes, err := s.store.GetVisibleNodes(r.Context(), claims.UserID, parentID, sortBy)
	if err != nil {
		http.Error(w, "Failed to list nodes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(nodes)
}

// ensurePathFolders tworzy (albo odnajduje) kolejne foldery ze ścieżki
// względnej uploadu. Puste segmenty są pomijane, każdy pozostały przechodzi
// tę samą walidację co jawne tworzenie folderu.
func (s *Server) ensurePathFolders(ctx context.Context, ownerID int64, parentID *string, dirPath string, segments []string) (*string, string, error) {
	currentParentID := parentID

	for _, raw := range segments {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		seg, err := storage.CleanSegment(raw)
		if err != nil {
			return nil, "", err
		}

		folder, err := s.store.FindChildFolder(ctx, ownerID, currentParentID, seg)
		if err != nil {
			return nil, "", err
		}
		if folder == nil {
			nodeID, err := s.generateUniqueID(ctx)
			if err != nil {
				return nil, "", err
			}
			folder, err = s.store.CreateNode(ctx, database.CreateNodeParams{
				ID:       nodeID,
				OwnerID:  ownerID,
				ParentID: currentParentID,
				Name:     seg,
				NodeType: models.NodeTypeFolder,
			})
			if errors.Is(err, database.ErrDuplicateNodeName) {
				// Przegrany wyścig z równoległym uploadem — folder już jest.
				folder, err = s.store.FindChildFolder(ctx, ownerID, currentParentID, seg)
				if err == nil && folder == nil {
					err = database.ErrDuplicateNodeName
				}
			}
			if err != nil {
				return nil, "", err
			}
		}

		dirPath = filepath.Join(dirPath, seg)
		if err := s.storage.MaterializeFolder(dirPath); err != nil {
			return nil, "", err
		}
		currentParentID = &folder.ID
	}

	return currentParentID, dirPath, nil
}

func (s *Server) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<30)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error parsing multipart form", http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error retrieving the file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename, err := storage.CleanSegment(handler.Filename)
	if err != nil {
		http.Error(w, "Invalid file name", http.StatusBadRequest)
		return
	}

	ownerID := claims.UserID
	var parentID *string
	var parentChain []models.Node

	if parentIDStr := r.FormValue("parent_id"); parentIDStr != "" {
		parent, chain, err := s.loadAuthorized(r.Context(), claims, parentIDStr, true)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if parent == nil {
			http.Error(w, "Parent folder not found or you do not have permission to write to it", http.StatusNotFound)
			return
		}
		if !parent.IsFolder() {
			http.Error(w, "Parent is not a folder", http.StatusBadRequest)
			return
		}
		ownerID = parent.OwnerID
		parentID = &parentIDStr
		parentChain = chain
	}

	dirPath := storage.ResolvePath(s.storage.BasePath(), ownerID, parentChain)

	if relativePath := r.FormValue("relative_path"); relativePath != "" {
		segments := strings.Split(relativePath, "/")
		if len(segments) > 1 {
			parentID, dirPath, err = s.ensurePathFolders(r.Context(), ownerID, parentID, dirPath, segments[:len(segments)-1])
			if err != nil {
				if errors.Is(err, storage.ErrInvalidName) {
					http.Error(w, "Invalid folder name in relative path", http.StatusBadRequest)
					return
				}
				http.Error(w, "Failed to create folders for upload", http.StatusInternalServerError)
				return
			}
		}
	}

	nodeID, err := s.generateUniqueID(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sizeBytes := handler.Size
	mimeType := handler.Header.Get("Content-Type")

	var node *models.Node
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		node, err = q.CreateNode(r.Context(), database.CreateNodeParams{
			ID:        nodeID,
			OwnerID:   ownerID,
			ParentID:  parentID,
			Name:      filename,
			NodeType:  models.NodeTypeFile,
			SizeBytes: &sizeBytes,
			MimeType:  &mimeType,
		})
		if err != nil {
			return err
		}
		// Zapis na dysk w tej samej klamrze: awaria I/O wycofuje wiersz,
		// ewentualny plik tymczasowy zostaje jako śmieć.
		_, err = s.storage.WriteFile(dirPath, filename, file)
		return err
	})

	if txErr != nil {
		if errors.Is(txErr, database.ErrDuplicateNodeName) {
			http.Error(w, txErr.Error(), http.StatusConflict)
			return
		}
		if errors.Is(txErr, database.ErrInvalidParent) {
			http.Error(w, "Parent folder does not exist", http.StatusBadRequest)
			return
		}
		log.Printf("BŁĄD: upload pliku %q nie powiódł się: %v", filename, txErr)
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(node)
}

func (s *Server) DownloadNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	nodeID := chi.URLParam(r, "nodeId")
	if nodeID == "" {
		http.Error(w, "Node ID is required", http.StatusBadRequest)
		return
	}

	node, chain, err := s.loadAuthorized(r.Context(), claims, nodeID, false)
	if err != nil {
		http.Error(w, "Failed to retrieve node metadata", http.StatusInternalServerError)
		return
	}
	if node == nil {
		http.Error(w, "Node not found or you do not have permission to access it", http.StatusNotFound)
		return
	}

	path := storage.ResolvePath(s.storage.BasePath(), node.OwnerID, chain)

	if node.IsFolder() {
		archivePath, err := archive.ArchiveFolder(path, node.Name)
		if err != nil {
			log.Printf("BŁĄD: archiwizacja folderu %s nie powiodła się: %v", node.ID, err)
			http.Error(w, "Failed to build archive", http.StatusInternalServerError)
			return
		}
		defer os.Remove(archivePath)

		archiveFile, err := os.Open(archivePath)
		if err != nil {
			http.Error(w, "Failed to read archive", http.StatusInternalServerError)
			return
		}
		defer archiveFile.Close()

		w.Header().Set("Content-Disposition", "attachment; filename=\""+archive.SuggestedFilename(node.Name)+"\"")
		w.Header().Set("Content-Type", "application/zip")
		io.Copy(w, archiveFile)
		return
	}

	fileStream, err := s.storage.Open(path)
	if err != nil {
		http.Error(w, "File not found on storage", http.StatusInternalServerError)
		return
	}
	defer fileStream.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+node.Name+"\"")
	if node.MimeType != nil && *node.MimeType != "" {
		w.Header().Set("Content-Type", *node.MimeType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if node.SizeBytes != nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", *node.SizeBytes))
	}

	io.Copy(w, fileStream)
}

func (s *Server) DeleteNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	nodeID := chi.URLParam(r, "nodeId")
	if nodeID == "" {
		http.Error(w, "Node ID is required", http.StatusBadRequest)
		return
	}

	node, chain, err := s.loadAuthorized(r.Context(), claims, nodeID, true)
	if err != nil {
		http.Error(w, "Failed to delete node", http.StatusInternalServerError)
		return
	}
	if node == nil {
		http.Error(w, "Node not found or you do not have permission to delete it", http.StatusNotFound)
		return
	}

	path := storage.ResolvePath(s.storage.BasePath(), node.OwnerID, chain)

	var deleted []models.Node
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		deleted, err = q.DeleteSubtree(r.Context(), nodeID)
		return err
	})
	if txErr != nil {
		http.Error(w, "Failed to delete node", http.StatusInternalServerError)
		return
	}

	// Katalog w bazie jest źródłem prawdy: błąd dysku logujemy i tolerujemy,
	// najwyżej zostaną osierocone pliki.
	if node.IsFolder() {
		if err := s.storage.RemoveFolderRecursive(path); err != nil {
			log.Printf("UWAGA: nie udało się usunąć katalogu %s (%d wpisów skasowanych z bazy): %v", path, len(deleted), err)
		}
	} else {
		if err := s.storage.RemoveFile(path); err != nil {
			log.Printf("UWAGA: nie udało się usunąć pliku %s: %v", path, err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
