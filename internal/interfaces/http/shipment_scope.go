package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Envois-api/internal/application/dto"
)

const (
	HeaderShipmentID = "X-Envoi-Id"
	QueryShipmentID  = "envoi_id"
	localShipment    = "shipment"
)

// shipmentResolver lo implementa *usecase.ShipmentUseCase.
type shipmentResolver interface {
	GetByID(ctx context.Context, id string) (*dto.ShipmentResponse, error)
}

// ShipmentScope resuelve una vez por petición el envío de trabajo (?envoi_id= o X-Envoi-Id).
// Sin envío: 400 con field envoi_id; envío inexistente: 404.
func ShipmentScope(resolver shipmentResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Query(QueryShipmentID))
		if id == "" {
			id = strings.TrimSpace(c.Get(HeaderShipmentID))
		}
		if id == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code: "VALIDATION", Message: "envío requerido (envoi_id o X-Envoi-Id)", Field: QueryShipmentID,
			})
		}
		sh, err := resolver.GetByID(c.UserContext(), id)
		if err != nil {
			return writeError(c, err)
		}
		c.Locals(localShipment, sh)
		return c.Next()
	}
}

// GetShipment envío resuelto por ShipmentScope.
func GetShipment(c *fiber.Ctx) *dto.ShipmentResponse {
	sh, _ := c.Locals(localShipment).(*dto.ShipmentResponse)
	return sh
}

// GetShipmentID id del envío resuelto, vacío fuera del scope.
func GetShipmentID(c *fiber.Ctx) string {
	if sh := GetShipment(c); sh != nil {
		return sh.ID
	}
	return ""
}
