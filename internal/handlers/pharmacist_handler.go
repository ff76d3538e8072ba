package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/curalink/curalink-api/internal/services"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type inventoryItemRequest struct {
	MedicationName string `json:"medicationName"`
	StockLevel     int    `json:"stockLevel"`
	ExpirationDate string `json:"expirationDate"`
}

func (r inventoryItemRequest) toModel() (models.InventoryItem, error) {
	item := models.InventoryItem{MedicationName: r.MedicationName, StockLevel: r.StockLevel}
	if r.ExpirationDate != "" {
		date, err := models.ParseDate(r.ExpirationDate)
		if err != nil {
			return item, err
		}
		item.ExpirationDate = date
	}
	return item, nil
}

func toInventory(in []inventoryItemRequest) ([]models.InventoryItem, error) {
	if in == nil {
		return nil, nil
	}
	items := make([]models.InventoryItem, 0, len(in))
	for i, r := range in {
		item, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("inventory[%d]: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

type PharmacistRequest struct {
	Inventory     []inventoryItemRequest `json:"inventory"`
	Notifications []string               `json:"notifications"`
}

type InventoryRequest struct {
	Inventory []inventoryItemRequest `json:"inventory" binding:"required"`
}

type NotificationsRequest struct {
	Notifications []string `json:"notifications" binding:"required"`
}

func (h *Handler) RegisterPharmacist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req PharmacistRequest
	if !bindJSON(c, &req) {
		return
	}
	inventory, err := toInventory(req.Inventory)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	pharmacist, err := h.svc.Pharmacists.Register(c.Request.Context(), userID, services.PharmacistInput{
		Inventory:     inventory,
		Notifications: req.Notifications,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if token, err := h.svc.Auth.Reissue(userID, models.RolePharmacist); err == nil {
		c.Header(AuthTokenHeader, token)
	}
	c.JSON(http.StatusCreated, pharmacist)
}

func (h *Handler) GetPharmacistProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.svc.Pharmacists.Profile(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdatePharmacistProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req PharmacistRequest
	if !bindJSON(c, &req) {
		return
	}
	inventory, err := toInventory(req.Inventory)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	profile, err := h.svc.Pharmacists.UpdateProfile(c.Request.Context(), userID, services.PharmacistUpdate{
		Inventory:     inventory,
		Notifications: req.Notifications,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) GetInventory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.svc.Pharmacists.Inventory(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": items})
}

func (h *Handler) UpdateInventory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req InventoryRequest
	if !bindJSON(c, &req) {
		return
	}
	inventory, err := toInventory(req.Inventory)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	items, err := h.svc.Pharmacists.SetInventory(c.Request.Context(), userID, inventory)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": items})
}

func (h *Handler) AddDrug(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req inventoryItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := req.toModel()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	items, err := h.svc.Pharmacists.AddDrug(c.Request.Context(), userID, item)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": items})
}

func (h *Handler) RemoveDrug(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	drugID, ok := objectIDParam(c, "drugId")
	if !ok {
		return
	}
	items, err := h.svc.Pharmacists.RemoveDrug(c.Request.Context(), userID, drugID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": items})
}

func (h *Handler) UpdateNotifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req NotificationsRequest
	if !bindJSON(c, &req) {
		return
	}
	notes, err := h.svc.Pharmacists.SetNotifications(c.Request.Context(), userID, req.Notifications)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notes})
}

// ExportInventory streams the inventory as an .xlsx download.
func (h *Handler) ExportInventory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	data, err := h.svc.Pharmacists.ExportInventory(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
