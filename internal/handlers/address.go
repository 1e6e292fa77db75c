package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
)

// AddressHandler manages user address endpoints.
type AddressHandler struct {
	db *gorm.DB
}

// NewAddressHandler constructs AddressHandler.
func NewAddressHandler(db *gorm.DB) *AddressHandler {
	return &AddressHandler{db: db}
}

// ListAddresses returns the user's active addresses.
func (h *AddressHandler) ListAddresses(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var addresses []models.Address
	if err := h.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at desc").
		Find(&addresses).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": addresses})
}

type addressRequest struct {
	AddressType  string `json:"address_type"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Company      string `json:"company"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	PhoneNumber  string `json:"phone_number"`
	IsDefault    bool   `json:"is_default"`
}

// CreateAddress creates an address for the user. When is_default is set,
// the previous default for the same type is cleared.
func (h *AddressHandler) CreateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.FirstName == "" || req.AddressLine1 == "" || req.City == "" || req.Country == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	if req.AddressType == "" {
		req.AddressType = models.AddressTypeShipping
	}

	address := models.Address{
		UserID:       userID,
		AddressType:  req.AddressType,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Company:      req.Company,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		PhoneNumber:  req.PhoneNumber,
		IsDefault:    req.IsDefault,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			err := tx.Model(&models.Address{}).
				Where("user_id = ? AND address_type = ? AND is_default = ?", userID, address.AddressType, true).
				UpdateColumn("is_default", false).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": address})
}

// UpdateAddress updates an address owned by the user.
func (h *AddressHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var address models.Address
	err = h.db.Where("id = ? AND user_id = ? AND is_active = ?", addrID, userID, true).
		First(&address).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "address not found")
		}
		return err
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault && !address.IsDefault {
			addressType := address.AddressType
			if req.AddressType != "" {
				addressType = req.AddressType
			}
			err := tx.Model(&models.Address{}).
				Where("user_id = ? AND address_type = ? AND is_default = ?", userID, addressType, true).
				UpdateColumn("is_default", false).Error
			if err != nil {
				return err
			}
		}

		updates := map[string]interface{}{"is_default": req.IsDefault}
		if req.AddressType != "" {
			updates["address_type"] = req.AddressType
		}
		if req.FirstName != "" {
			updates["first_name"] = req.FirstName
		}
		if req.LastName != "" {
			updates["last_name"] = req.LastName
		}
		if req.Company != "" {
			updates["company"] = req.Company
		}
		if req.AddressLine1 != "" {
			updates["address_line_1"] = req.AddressLine1
		}
		if req.AddressLine2 != "" {
			updates["address_line_2"] = req.AddressLine2
		}
		if req.City != "" {
			updates["city"] = req.City
		}
		if req.State != "" {
			updates["state"] = req.State
		}
		if req.PostalCode != "" {
			updates["postal_code"] = req.PostalCode
		}
		if req.Country != "" {
			updates["country"] = req.Country
		}
		if req.PhoneNumber != "" {
			updates["phone_number"] = req.PhoneNumber
		}

		return tx.Model(&address).Updates(updates).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": address})
}

// DeleteAddress soft-deletes an address owned by the user.
func (h *AddressHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	result := h.db.Model(&models.Address{}).
		Where("id = ? AND user_id = ? AND is_active = ?", addrID, userID, true).
		UpdateColumn("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "address not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
