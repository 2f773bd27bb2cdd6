package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type clientRepository struct {
	q querier
}

var _ domain.ClientRepository = (*clientRepository)(nil)

func (r *clientRepository) Create(ctx context.Context, client domain.Client) (domain.Client, error) {
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}

	err := r.q.QueryRowContext(ctx, `
		INSERT INTO clients (user_id, full_name, contact, address, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`,
		client.UserID, client.FullName, client.Contact, client.Address, client.Status, client.CreatedAt,
	).Scan(&client.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Client{}, domain.ErrClientExists
		}
		return domain.Client{}, fmt.Errorf("insert client: %w", err)
	}

	return client, nil
}

func (r *clientRepository) Get(ctx context.Context, id int64) (domain.Client, error) {
	return r.scanOne(r.q.QueryRowContext(ctx, `
		SELECT id, user_id, full_name, contact, address, status, created_at
		FROM clients
		WHERE id = $1
	`, id))
}

func (r *clientRepository) GetByUserID(ctx context.Context, userID int64) (domain.Client, error) {
	return r.scanOne(r.q.QueryRowContext(ctx, `
		SELECT id, user_id, full_name, contact, address, status, created_at
		FROM clients
		WHERE user_id = $1
	`, userID))
}

func (r *clientRepository) List(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, full_name, contact, address, status, created_at
		FROM clients
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]domain.Client, 0)
	for rows.Next() {
		var client domain.Client
		if err := rows.Scan(
			&client.ID, &client.UserID, &client.FullName,
			&client.Contact, &client.Address, &client.Status, &client.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan client row: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client rows: %w", err)
	}

	return clients, nil
}

func (r *clientRepository) Update(ctx context.Context, client domain.Client) (domain.Client, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE clients
		SET full_name = $2,
		    contact = $3,
		    address = $4,
		    status = $5
		WHERE id = $1
	`, client.ID, client.FullName, client.Contact, client.Address, client.Status)
	if err != nil {
		return domain.Client{}, fmt.Errorf("update client: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Client{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Client{}, domain.ErrClientNotFound
	}

	return r.Get(ctx, client.ID)
}

func (r *clientRepository) Delete(ctx context.Context, id int64) (domain.Client, error) {
	deleted, err := r.Get(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}

	if _, err := r.q.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id); err != nil {
		return domain.Client{}, fmt.Errorf("delete client: %w", err)
	}

	return deleted, nil
}

func (r *clientRepository) scanOne(row *sql.Row) (domain.Client, error) {
	var client domain.Client
	err := row.Scan(
		&client.ID, &client.UserID, &client.FullName,
		&client.Contact, &client.Address, &client.Status, &client.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Client{}, domain.ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("select client: %w", err)
	}
	return client, nil
}
