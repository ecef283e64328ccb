package database

import (
	"context"
	"errors"

	"drzewo-plikow/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
)

var ErrGrantNodeNotFound = errors.New("granted node does not exist")

type GrantParams struct {
	NodeID   string `json:"node_id"`
	CanRead  bool   `json:"can_read"`
	CanWrite bool   `json:"can_write"`
}

// ReplaceGrants wymienia komplet uprawnień użytkownika: najpierw kasuje
// wszystkie, potem wstawia nowy zestaw. Wołane wewnątrz ExecTx, żeby stan
// "zero uprawnień" nie był widoczny dla współbieżnych odczytów.
func (q *Queries) ReplaceGrants(ctx context.Context, userID int64, grants []GrantParams) error {
	query := `DELETE FROM user_node_grants WHERE user_id = $1`
	if _, err := q.db.Exec(ctx, query, userID); err != nil {
		return err
	}

	insert := `
		INSERT INTO user_node_grants (user_id, node_id, can_read, can_write)
		VALUES ($1, $2, $3, $4)
	`
	for _, g := range grants {
		if !g.CanRead && !g.CanWrite {
			continue
		}
		if _, err := q.db.Exec(ctx, insert, userID, g.NodeID, g.CanRead, g.CanWrite); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return ErrGrantNodeNotFound
			}
			return err
		}
	}

	return nil
}

// GrantsFor pobiera wszystkie uprawnienia użytkownika jednym zapytaniem;
// handler trzyma mapę przez cały request zamiast pytać bazę przy każdym nodzie.
func (q *Queries) GrantsFor(ctx context.Context, userID int64) (map[string]models.Grant, error) {
	query := `
		SELECT user_id, node_id, can_read, can_write
		FROM user_node_grants
		WHERE user_id = $1
	`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grants := make(map[string]models.Grant)
	for rows.Next() {
		var g models.Grant
		if err := rows.Scan(&g.UserID, &g.NodeID, &g.CanRead, &g.CanWrite); err != nil {
			return nil, err
		}
		grants[g.NodeID] = g
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return grants, nil
}
