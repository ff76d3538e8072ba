package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InventoryItem struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	MedicationName string             `bson:"medicationName" json:"medicationName"`
	StockLevel     int                `bson:"stockLevel" json:"stockLevel"`
	ExpirationDate time.Time          `bson:"expirationDate" json:"expirationDate"`
}

func (i InventoryItem) Validate() error {
	if i.MedicationName == "" {
		return fmt.Errorf("medicationName is required")
	}
	if i.StockLevel < 0 {
		return fmt.Errorf("stockLevel must not be negative")
	}
	if i.ExpirationDate.IsZero() {
		return fmt.Errorf("expirationDate is required")
	}
	return nil
}

type Pharmacist struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Inventory     []InventoryItem    `bson:"inventory" json:"inventory"`
	Notifications []string           `bson:"notifications" json:"notifications"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type PharmacistProfile struct {
	*Pharmacist
	User *UserSummary `json:"user"`
}
