package repository

import (
	"context"
	"fmt"

	"ticket-broker/internal/data/entity"
	"ticket-broker/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BuyerRepository interface {
	FindByPhone(ctx context.Context, phone string) (*entity.Buyer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Buyer, error)

	// Upsert creates or overwrites the buyer keyed by phone number.
	// Last write wins: name and email always reflect the newest booking.
	Upsert(ctx context.Context, buyer *entity.Buyer) error
}

type buyerRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBuyerRepository(db database.PgxIface, log *zap.Logger) BuyerRepository {
	return &buyerRepository{
		db:  db,
		log: log.With(zap.String("repository", "buyer")),
	}
}

const buyerColumns = `id, phone, first_name, last_name, email, created_at, updated_at`

func scanBuyer(row rowScanner) (*entity.Buyer, error) {
	var buyer entity.Buyer
	err := row.Scan(
		&buyer.ID,
		&buyer.Phone,
		&buyer.FirstName,
		&buyer.LastName,
		&buyer.Email,
		&buyer.CreatedAt,
		&buyer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &buyer, nil
}

// upsertBuyer runs the phone-keyed upsert against any Queryer so the mint
// transaction can share it.
func upsertBuyer(ctx context.Context, q database.Queryer, buyer *entity.Buyer) (uuid.UUID, error) {
	query := `
		INSERT INTO buyers (id, phone, first_name, last_name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (phone) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name  = EXCLUDED.last_name,
		    email      = EXCLUDED.email,
		    updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	var id uuid.UUID
	err := q.QueryRow(ctx, query,
		buyer.ID,
		buyer.Phone,
		buyer.FirstName,
		buyer.LastName,
		buyer.Email,
		buyer.CreatedAt,
		buyer.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert buyer %s: %w", buyer.Phone, err)
	}

	return id, nil
}

func (r *buyerRepository) FindByPhone(ctx context.Context, phone string) (*entity.Buyer, error) {
	query := `SELECT ` + buyerColumns + ` FROM buyers WHERE phone = $1`

	buyer, err := scanBuyer(r.db.QueryRow(ctx, query, phone))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find buyer by phone",
			zap.Error(err),
			zap.String("phone", phone),
		)
		return nil, fmt.Errorf("find buyer by phone %s: %w", phone, err)
	}

	return buyer, nil
}

func (r *buyerRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Buyer, error) {
	query := `SELECT ` + buyerColumns + ` FROM buyers WHERE id = $1`

	buyer, err := scanBuyer(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find buyer by ID",
			zap.Error(err),
			zap.String("buyer_id", id.String()),
		)
		return nil, fmt.Errorf("find buyer by ID %s: %w", id.String(), err)
	}

	return buyer, nil
}

func (r *buyerRepository) Upsert(ctx context.Context, buyer *entity.Buyer) error {
	id, err := upsertBuyer(ctx, r.db, buyer)
	if err != nil {
		r.log.Error("Failed to upsert buyer",
			zap.Error(err),
			zap.String("phone", buyer.Phone),
		)
		return err
	}

	buyer.ID = id
	return nil
}
