package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"craftmarket/internal/domain/entity"
	"craftmarket/internal/usecase"
	"craftmarket/pkg/response"
	"craftmarket/pkg/utils"
)

type RoomHandler struct {
	roomUseCase *usecase.RoomUseCase
}

func NewRoomHandler(roomUseCase *usecase.RoomUseCase) *RoomHandler {
	return &RoomHandler{roomUseCase: roomUseCase}
}

type createRoomRequest struct {
	ArtisanID string `json:"artisan_id" validate:"required"`
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id"`
}

type updateCustomizationRequest struct {
	Options    map[string]string  `json:"options,omitempty"`
	Dimensions *entity.Dimensions `json:"dimensions,omitempty"`
	Quantity   *int               `json:"quantity,omitempty" validate:"omitempty,min=1"`
	Deadline   *time.Time         `json:"deadline,omitempty"`
	Price      *float64           `json:"price,omitempty" validate:"omitempty,min=0"`
	Notes      *string            `json:"notes,omitempty"`
	Status     *string            `json:"status,omitempty" validate:"omitempty,oneof=draft pending quote_sent accepted in_progress completed"`
}

// CreateRoom finds or creates the room between the caller and an artisan,
// optionally scoped to a product.
func (h *RoomHandler) CreateRoom(c echo.Context) error {
	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	room, err := h.roomUseCase.GetOrCreateRoom(c.Request().Context(), userID, usecase.CreateRoomInput{
		ArtisanID: req.ArtisanID,
		ProductID: req.ProductID,
		OrderID:   req.OrderID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, room)
}

// ListRooms returns the caller's active rooms, most recent activity first.
func (h *RoomHandler) ListRooms(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c, 20)

	rooms, total, err := h.roomUseCase.ListRooms(c.Request().Context(), userID, params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, rooms, total, params.Page, params.PageSize)
}

func (h *RoomHandler) GetRoom(c echo.Context) error {
	userID := c.Get("uid").(string)

	room, err := h.roomUseCase.GetRoom(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, room)
}

// VerifyAccess reports whether the caller may enter the room. A non-participant
// gets `has_access: false`, not an error; errors are reserved for missing rooms
// and store failures.
func (h *RoomHandler) VerifyAccess(c echo.Context) error {
	userID := c.Get("uid").(string)

	hasAccess, err := h.roomUseCase.VerifyAccess(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"has_access": hasAccess})
}

// UpdateCustomization applies a partial update to the room's customization
// payload.
func (h *RoomHandler) UpdateCustomization(c echo.Context) error {
	var req updateCustomizationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	room, err := h.roomUseCase.UpdateCustomization(c.Request().Context(), c.Param("id"), userID, entity.CustomizationPatch{
		Options:    req.Options,
		Dimensions: req.Dimensions,
		Quantity:   req.Quantity,
		Deadline:   req.Deadline,
		Price:      req.Price,
		Notes:      req.Notes,
		Status:     req.Status,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, room)
}

// DeleteRoom soft-deletes a room for both participants.
func (h *RoomHandler) DeleteRoom(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.roomUseCase.DeactivateRoom(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Room closed"})
}
