package storage

import (
	"context"
	"errors"
	"fmt"

	"reconciliation-service/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

// Repository implements the importer, reconciliation and user stores on gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// fingerprintColumns são as colunas necessárias para recalcular DedupKey.
var fingerprintColumns = []string{
	"order_number", "item_id", "value_total", "product_number", "variation", "seller_sku",
	"shein_sku", "skc", "inventory_id", "tracking_code", "first_mile_waybill",
}

func (r *Repository) ExistingOrderKeys(ctx context.Context, userID uint64) (map[string]struct{}, error) {
	var rows []OrderModel
	err := r.db.WithContext(ctx).
		Select(fingerprintColumns).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar pedidos: %w", err)
	}
	keys := make(map[string]struct{}, len(rows))
	for _, m := range rows {
		keys[m.toDomain().DedupKey()] = struct{}{}
	}
	return keys, nil
}

// InsertOrders ignora linhas que violam os índices únicos.
func (r *Repository) InsertOrders(ctx context.Context, items []domain.OrderLineItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	models := make([]OrderModel, len(items))
	for i, item := range items {
		models[i] = orderToModel(item)
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&models, insertBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("erro ao inserir pedidos: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (r *Repository) ExistingPaymentNumbers(ctx context.Context, userID uint64, numbers []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	if len(numbers) == 0 {
		return found, nil
	}
	var existing []string
	err := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("user_id = ? AND order_number IN ?", userID, numbers).
		Distinct().
		Pluck("order_number", &existing).Error
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar pagamentos: %w", err)
	}
	for _, n := range existing {
		found[n] = struct{}{}
	}
	return found, nil
}

// InsertPaymentsAndPurge grava os pagamentos e, na mesma transação, apaga os
// pagamentos não positivos de pedidos que já têm pagamento positivo.
func (r *Repository) InsertPaymentsAndPurge(ctx context.Context, userID uint64, payments []domain.PaymentRecord) (int, error) {
	inserted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(payments) > 0 {
			models := make([]PaymentModel, len(payments))
			for i, p := range payments {
				models[i] = paymentToModel(p)
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&models, insertBatchSize)
			if res.Error != nil {
				return fmt.Errorf("erro ao inserir pagamentos: %w", res.Error)
			}
			inserted = int(res.RowsAffected)
		}

		var positive []string
		if err := tx.Model(&PaymentModel{}).
			Where("user_id = ? AND amount > 0", userID).
			Distinct().
			Pluck("order_number", &positive).Error; err != nil {
			return fmt.Errorf("erro ao consultar pagamentos positivos: %w", err)
		}
		if len(positive) == 0 {
			return nil
		}
		if err := tx.Where("user_id = ? AND order_number IN ? AND amount <= 0", userID, positive).
			Delete(&PaymentModel{}).Error; err != nil {
			return fmt.Errorf("erro ao remover pagamentos negativos: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *Repository) ListOrders(ctx context.Context, userID uint64) ([]domain.OrderLineItem, error) {
	var rows []OrderModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("erro ao listar pedidos: %w", err)
	}
	out := make([]domain.OrderLineItem, len(rows))
	for i, m := range rows {
		out[i] = m.toDomain()
	}
	return out, nil
}

func (r *Repository) ListPayments(ctx context.Context, userID uint64) ([]domain.PaymentRecord, error) {
	var rows []PaymentModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("erro ao listar pagamentos: %w", err)
	}
	out := make([]domain.PaymentRecord, len(rows))
	for i, m := range rows {
		out[i] = m.toDomain()
	}
	return out, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	m := userToModel(*user)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("erro ao criar usuário: %w", err)
	}
	user.ID = m.ID
	return nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("erro ao buscar usuário: %w", err)
	}
	return m.toDomain(), nil
}

func (r *Repository) GetUser(ctx context.Context, id uint64) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("erro ao buscar usuário: %w", err)
	}
	return m.toDomain(), nil
}
