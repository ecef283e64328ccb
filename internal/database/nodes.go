package database

import (
	"context"
	"errors"
	"time"

	"drzewo-plikow/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrDuplicateNodeName = errors.New("a node with the same name already exists in this folder")
var ErrInvalidParent = errors.New("parent does not exist or is not a folder")

type CreateNodeParams struct {
	ID        string
	OwnerID   int64
	ParentID  *string
	Name      string
	NodeType  string
	SizeBytes *int64
	MimeType  *string
}

func (q *Queries) CreateNode(ctx context.Context, arg CreateNodeParams) (*models.Node, error) {
	if arg.ParentID != nil {
		parent, err := q.GetNodeByID(ctx, *arg.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || !parent.IsFolder() {
			return nil, ErrInvalidParent
		}
	}

	query := `
		INSERT INTO nodes (id, owner_id, parent_id, name, node_type, size_bytes, mime_type, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, owner_id, parent_id, name, node_type, size_bytes, mime_type, created_at, modified_at
	`
	now := time.Now()

	row := q.db.QueryRow(ctx, query,
		arg.ID,
		arg.OwnerID,
		arg.ParentID,
		arg.Name,
		arg.NodeType,
		arg.SizeBytes,
		arg.MimeType,
		now,
		now,
	)

	var node models.Node
	err := row.Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Name,
		&node.NodeType,
		&node.SizeBytes,
		&node.MimeType,
		&node.CreatedAt,
		&node.ModifiedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateNodeName
		}
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrInvalidParent
		}
		return nil, err
	}

	return &node, nil
}

func (q *Queries) GetNodeByID(ctx context.Context, id string) (*models.Node, error) {
	query := `
		SELECT id, owner_id, parent_id, name, node_type, size_bytes, mime_type, created_at, modified_at
		FROM nodes
		WHERE id = $1
	`
	var node models.Node

	err := q.db.QueryRow(ctx, query, id).Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Name,
		&node.NodeType,
		&node.SizeBytes,
		&node.MimeType,
		&node.CreatedAt,
		&node.ModifiedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &node, nil
}

func (q *Queries) NodeExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM nodes WHERE id = $1)"
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetVisibleNodes zwraca nody widoczne dla użytkownika pod danym rodzicem:
// własne oraz te, na które ma nadane prawo odczytu.
func (q *Queries) GetVisibleNodes(ctx context.Context, userID int64, parentID *string, sortBy string) ([]models.Node, error) {
	orderBy := "n.node_type DESC, n.name ASC"
	if sortBy == "date" {
		orderBy = "n.node_type DESC, n.created_at DESC"
	}

	var rows pgx.Rows
	var err error

	if parentID == nil {
		query := `
			SELECT DISTINCT n.id, n.owner_id, n.parent_id, n.name, n.node_type,
				n.size_bytes, n.mime_type, n.created_at, n.modified_at
			FROM nodes n
			LEFT JOIN user_node_grants g ON g.node_id = n.id AND g.user_id = $1
			WHERE n.parent_id IS NULL
			  AND (n.owner_id = $1 OR g.can_read OR g.can_write)
			ORDER BY ` + orderBy
		rows, err = q.db.Query(ctx, query, userID)
	} else {
		query := `
			SELECT DISTINCT n.id, n.owner_id, n.parent_id, n.name, n.node_type,
				n.size_bytes, n.mime_type, n.created_at, n.modified_at
			FROM nodes n
			LEFT JOIN user_node_grants g ON g.node_id = n.id AND g.user_id = $1
			WHERE n.parent_id = $2
			  AND (n.owner_id = $1 OR g.can_read OR g.can_write)
			ORDER BY ` + orderBy
		rows, err = q.db.Query(ctx, query, userID, *parentID)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		err := rows.Scan(
			&node.ID,
			&node.OwnerID,
			&node.ParentID,
			&node.Name,
			&node.NodeType,
			&node.SizeBytes,
			&node.MimeType,
			&node.CreatedAt,
			&node.ModifiedAt,
		)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if nodes == nil {
		return []models.Node{}, nil
	}

	return nodes, nil
}

// GetAncestorChain zwraca łańcuch od danego noda do korzenia (włącznie z nim samym).
func (q *Queries) GetAncestorChain(ctx context.Context, nodeID string) ([]models.Node, error) {
	query := `
		WITH RECURSIVE node_parents AS (
			SELECT id, owner_id, parent_id, name, node_type, size_bytes, mime_type, created_at, modified_at, 0 AS depth
			FROM nodes
			WHERE id = $1

			UNION ALL

			SELECT n.id, n.owner_id, n.parent_id, n.name, n.node_type, n.size_bytes, n.mime_type, n.created_at, n.modified_at, np.depth + 1
			FROM nodes n
			JOIN node_parents np ON n.id = np.parent_id
		)
		SELECT id, owner_id, parent_id, name, node_type, size_bytes, mime_type, created_at, modified_at
		FROM node_parents
		ORDER BY depth ASC
	`
	rows, err := q.db.Query(ctx, query, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		err := rows.Scan(
			&node.ID,
			&node.OwnerID,
			&node.ParentID,
			&node.Name,
			&node.NodeType,
			&node.SizeBytes,
			&node.MimeType,
			&node.CreatedAt,
			&node.ModifiedAt,
		)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return nodes, nil
}

// DeleteSubtree usuwa nod razem z całym poddrzewem w jednej instrukcji
// i zwraca wszystkie usunięte wiersze (potrzebne do lustrzanego czyszczenia dysku).
func (q *Queries) DeleteSubtree(ctx context.Context, nodeID string) ([]models.Node, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT n.id
			FROM nodes n
			WHERE n.id = $1

			UNION ALL

			SELECT n.id
			FROM nodes n
			INNER JOIN subtree s ON n.parent_id = s.id
		)
		DELETE FROM nodes
		WHERE id IN (SELECT id FROM subtree)
		RETURNING id, owner_id, parent_id, name, node_type, size_bytes, mime_type, created_at, modified_at
	`
	rows, err := q.db.Query(ctx, query, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		err := rows.Scan(
			&node.ID,
			&node.OwnerID,
			&node.ParentID,
			&node.Name,
			&node.NodeType,
			&node.SizeBytes,
			&node.MimeType,
			&node.CreatedAt,
			&node.ModifiedAt,
		)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return nodes, nil
}

// FindChildFolder służy ścieżce auto-tworzenia przy uploadzie: najpierw
// szukamy istniejącego folderu, żeby nie tworzyć duplikatów.
func (q *Queries) FindChildFolder(ctx context.Context, ownerID int64, parentID *string, name string) (*models.Node, error) {
	var query string
	var row pgx.Row

	if parentID == nil {
		query = `
			SELECT id, owner_id, parent_id, name, node_type, size_bytes, mime_type, created_at, modified_at
			FROM nodes
			WHERE owner_id = $1 AND parent_id IS NULL AND name = $2 AND node_type = 'folder'
		`
		row = q.db.QueryRow(ctx, query, ownerID, name)
	} else {
		query = `
			SELECT id, owner_id, parent_id, name, node_type, size_bytes, mime_type, created_at, modified_at
			FROM nodes
			WHERE owner_id = $1 AND parent_id = $2 AND name = $3 AND node_type = 'folder'
		`
		row = q.db.QueryRow(ctx, query, ownerID, *parentID, name)
	}

	var node models.Node
	err := row.Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Name,
		&node.NodeType,
		&node.SizeBytes,
		&node.MimeType,
		&node.CreatedAt,
		&node.ModifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &node, nil
}
