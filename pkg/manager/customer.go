package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stratoview/cloudsync/pkg/models"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrInvalidRequest   = errors.New("invalid request")
)

// CustomerManager provides programmatic CRUD operations for customers,
// including the explicit cascade on deactivation and deletion.
type CustomerManager struct {
	DB *gorm.DB

	validate *validator.Validate
}

func NewCustomerManager(db *gorm.DB) *CustomerManager {
	return &CustomerManager{
		DB:       db,
		validate: validator.New(),
	}
}

type SubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id" validate:"required"`
	Name           string `json:"name"`
	State          string `json:"state"`
}

type CreateCustomerRequest struct {
	Name          string                `json:"name" validate:"required"`
	TenantID      string                `json:"tenant_id" validate:"required"`
	ClientID      string                `json:"client_id" validate:"required"`
	ClientSecret  string                `json:"client_secret" validate:"required"`
	Subscriptions []SubscriptionRequest `json:"subscriptions" validate:"dive"`
}

func (m *CustomerManager) Create(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	if err := m.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	customer := models.Customer{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         req.Name,
		TenantID:     req.TenantID,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Status:       models.CustomerStatusActive,
	}

	for _, sub := range req.Subscriptions {
		customer.Subscriptions = append(customer.Subscriptions, models.Subscription{
			ID:             uuid.Must(uuid.NewV7()),
			CustomerID:     customer.ID,
			SubscriptionID: sub.SubscriptionID,
			Name:           sub.Name,
			State:          sub.State,
		})
	}

	err := m.DB.
		WithContext(ctx).
		Create(&customer).
		Error

	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	return &customer, nil
}

func (m *CustomerManager) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer

	err := m.DB.
		WithContext(ctx).
		Preload("Subscriptions").
		First(&customer, "id = ?", id).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &customer, nil
}

func (m *CustomerManager) List(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer

	err := m.DB.
		WithContext(ctx).
		Preload("Subscriptions").
		Order("name").
		Find(&customers).
		Error

	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	return customers, nil
}

type UpdateCustomerRequest struct {
	Name         *string `json:"name"`
	ClientID     *string `json:"client_id"`
	ClientSecret *string `json:"client_secret"`
	Status       *string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}

func (m *CustomerManager) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*models.Customer, error) {
	if err := m.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	customer, err := m.Get(ctx, id)

	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}

	if req.Name != nil {
		updates["name"] = *req.Name
	}

	if req.ClientID != nil {
		updates["client_id"] = *req.ClientID
	}

	if req.ClientSecret != nil {
		updates["client_secret"] = *req.ClientSecret
	}

	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) == 0 {
		return customer, nil
	}

	err = m.DB.
		WithContext(ctx).
		Model(customer).
		Updates(updates).
		Error

	if err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	return m.Get(ctx, id)
}

// Deactivate soft-disables a customer and removes all of its synced data in
// one transaction. The customer row itself survives for re-activation.
func (m *CustomerManager) Deactivate(ctx context.Context, id uuid.UUID) error {
	customer, err := m.Get(ctx, id)

	if err != nil {
		return err
	}

	tx := m.DB.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := m.cascadeDelete(tx, customer.ID); err != nil {
		return err
	}

	err = tx.
		Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Update("status", models.CustomerStatusInactive).
		Error

	if err != nil {
		return fmt.Errorf("failed to deactivate customer: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit deactivation: %w", err)
	}

	return nil
}

// Delete removes the customer and everything it owns.
func (m *CustomerManager) Delete(ctx context.Context, id uuid.UUID) error {
	customer, err := m.Get(ctx, id)

	if err != nil {
		return err
	}

	tx := m.DB.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := m.cascadeDelete(tx, customer.ID); err != nil {
		return err
	}

	err = tx.
		Where("customer_id = ?", customer.ID).
		Delete(&models.Subscription{}).
		Error

	if err != nil {
		return fmt.Errorf("failed to delete subscriptions: %w", err)
	}

	err = tx.
		Unscoped().
		Delete(&models.Customer{}, "id = ?", customer.ID).
		Error

	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit deletion: %w", err)
	}

	return nil
}

// cascadeDelete removes the synced inventory owned by one customer. Detail
// rows go first so no orphan survives a partial failure.
func (m *CustomerManager) cascadeDelete(tx *gorm.DB, customerID uuid.UUID) error {
	resourceIDs := tx.
		Session(&gorm.Session{NewDB: true}).
		Model(&models.AzureResource{}).
		Select("id").
		Where("customer_id = ?", customerID)

	err := tx.
		Where("resource_id IN (?)", resourceIDs).
		Delete(&models.VMDetail{}).
		Error

	if err != nil {
		return fmt.Errorf("failed to delete vm details: %w", err)
	}

	err = tx.
		Where("customer_id = ?", customerID).
		Delete(&models.AzureResource{}).
		Error

	if err != nil {
		return fmt.Errorf("failed to delete resources: %w", err)
	}

	err = tx.
		Where("customer_id = ?", customerID).
		Delete(&models.M365User{}).
		Error

	if err != nil {
		return fmt.Errorf("failed to delete users: %w", err)
	}

	err = tx.
		Where("customer_id = ?", customerID).
		Delete(&models.M365License{}).
		Error

	if err != nil {
		return fmt.Errorf("failed to delete licenses: %w", err)
	}

	err = tx.
		Where("customer_id = ?", customerID).
		Delete(&models.M365Device{}).
		Error

	if err != nil {
		return fmt.Errorf("failed to delete devices: %w", err)
	}

	return nil
}
