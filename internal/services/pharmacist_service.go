package services

import (
	"context"
	"errors"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/curalink/curalink-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type PharmacistInput struct {
	Inventory     []models.InventoryItem
	Notifications []string
}

// PharmacistUpdate replaces whichever lists are non-nil.
type PharmacistUpdate struct {
	Inventory     []models.InventoryItem
	Notifications []string
}

type PharmacistService struct {
	pharmacists PharmacistRepository
	users       UserRepository
	now         func() time.Time
	log         *zap.Logger
}

func NewPharmacistService(pharmacists PharmacistRepository, users UserRepository, log *zap.Logger) *PharmacistService {
	return &PharmacistService{pharmacists: pharmacists, users: users, now: time.Now, log: log}
}

func prepareInventory(items []models.InventoryItem) ([]models.InventoryItem, error) {
	out := make([]models.InventoryItem, 0, len(items))
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, validationError("inventory[%d]: %s", i, err.Error())
		}
		if item.ID.IsZero() {
			item.ID = primitive.NewObjectID()
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *PharmacistService) Register(ctx context.Context, userID primitive.ObjectID, in PharmacistInput) (*models.Pharmacist, error) {
	inventory, err := prepareInventory(in.Inventory)
	if err != nil {
		return nil, err
	}
	notes := in.Notifications
	if notes == nil {
		notes = []string{}
	}

	pharmacist := &models.Pharmacist{UserID: userID, Inventory: inventory, Notifications: notes}
	if err := s.pharmacists.Create(ctx, pharmacist); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, &Error{Kind: KindValidation, Message: "Pharmacist profile already exists", Err: err}
		}
		return nil, storeError(err, "Pharmacist not found")
	}
	if err := s.users.SetRole(ctx, userID, models.RolePharmacist); err != nil {
		return nil, storeError(err, "User not found")
	}
	s.log.Info("pharmacist registered", zap.String("user_id", userID.Hex()))
	return pharmacist, nil
}

func (s *PharmacistService) Profile(ctx context.Context, userID primitive.ObjectID) (*models.PharmacistProfile, error) {
	pharmacist, err := s.pharmacists.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("Pharmacist profile not found")
	}
	if err != nil {
		return nil, internalError("Error fetching pharmacist profile", err)
	}

	profile := &models.PharmacistProfile{Pharmacist: pharmacist}
	if user, err := s.users.FindByID(ctx, userID); err == nil {
		summary := user.Summary()
		profile.User = &summary
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, internalError("Error fetching pharmacist profile", err)
	}
	return profile, nil
}

func (s *PharmacistService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, upd PharmacistUpdate) (*models.PharmacistProfile, error) {
	if upd.Inventory == nil && upd.Notifications == nil {
		return nil, validationError("No update fields provided")
	}
	if upd.Inventory != nil {
		if _, err := s.SetInventory(ctx, userID, upd.Inventory); err != nil {
			return nil, err
		}
	}
	if upd.Notifications != nil {
		if _, err := s.SetNotifications(ctx, userID, upd.Notifications); err != nil {
			return nil, err
		}
	}
	return s.Profile(ctx, userID)
}

func (s *PharmacistService) Inventory(ctx context.Context, userID primitive.ObjectID) ([]models.InventoryItem, error) {
	pharmacist, err := s.pharmacists.FindByUserID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Pharmacist not found")
	}
	if pharmacist.Inventory == nil {
		return []models.InventoryItem{}, nil
	}
	return pharmacist.Inventory, nil
}

// SetInventory overwrites the whole inventory.
func (s *PharmacistService) SetInventory(ctx context.Context, userID primitive.ObjectID, items []models.InventoryItem) ([]models.InventoryItem, error) {
	inventory, err := prepareInventory(items)
	if err != nil {
		return nil, err
	}
	stored, err := s.pharmacists.SetInventory(ctx, userID, inventory)
	if err != nil {
		return nil, storeError(err, "Pharmacist not found")
	}
	return stored, nil
}

func (s *PharmacistService) AddDrug(ctx context.Context, userID primitive.ObjectID, item models.InventoryItem) ([]models.InventoryItem, error) {
	if err := item.Validate(); err != nil {
		return nil, validationError("%s", err.Error())
	}
	item.ID = primitive.NewObjectID()
	stored, err := s.pharmacists.AddInventoryItem(ctx, userID, item)
	if err != nil {
		return nil, storeError(err, "Pharmacist not found")
	}
	return stored, nil
}

// RemoveDrug drops the item with drugID. Unknown ids leave the inventory unchanged.
func (s *PharmacistService) RemoveDrug(ctx context.Context, userID, drugID primitive.ObjectID) ([]models.InventoryItem, error) {
	stored, err := s.pharmacists.RemoveInventoryItem(ctx, userID, drugID)
	if err != nil {
		return nil, storeError(err, "Pharmacist not found")
	}
	return stored, nil
}

func (s *PharmacistService) SetNotifications(ctx context.Context, userID primitive.ObjectID, notes []string) ([]string, error) {
	if notes == nil {
		notes = []string{}
	}
	stored, err := s.pharmacists.SetNotifications(ctx, userID, notes)
	if err != nil {
		return nil, storeError(err, "Pharmacist not found")
	}
	return stored, nil
}

// ExportInventory renders the caller's inventory as an .xlsx workbook.
func (s *PharmacistService) ExportInventory(ctx context.Context, userID primitive.ObjectID) ([]byte, error) {
	items, err := s.Inventory(ctx, userID)
	if err != nil {
		return nil, err
	}
	data, err := buildInventoryWorkbook(items, s.now())
	if err != nil {
		s.log.Error("build inventory workbook", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, internalError("Could not export inventory", err)
	}
	return data, nil
}
