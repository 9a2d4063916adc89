package usecase

import (
	"context"

	"craftmarket/internal/domain/entity"
	"craftmarket/internal/domain/repository"
	"craftmarket/internal/infrastructure/ratelimit"
	"craftmarket/pkg/errors"
	"craftmarket/pkg/logger"
)

type RoomUseCase struct {
	roomRepo    repository.RoomRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	rateLimiter *ratelimit.RateLimiter
}

func NewRoomUseCase(
	roomRepo repository.RoomRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	rateLimiter *ratelimit.RateLimiter,
) *RoomUseCase {
	return &RoomUseCase{
		roomRepo:    roomRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
	}
}

type CreateRoomInput struct {
	ArtisanID string
	ProductID string
	OrderID   string
}

// RoomResponse enriches a room with the referenced product and the
// counterpart participant for list and detail views.
type RoomResponse struct {
	*entity.Room
	Product   *entity.Product `json:"product,omitempty"`
	OtherUser *entity.User    `json:"other_user,omitempty"`
}

// GetOrCreateRoom finds or creates the active room for the
// (buyer, artisan, product) triple. Concurrent identical calls resolve to a
// single room through the repository's transactional create.
func (uc *RoomUseCase) GetOrCreateRoom(ctx context.Context, buyerID string, input CreateRoomInput) (*RoomResponse, error) {
	if allowed, _ := uc.rateLimiter.Allow(buyerID, "create_room"); !allowed {
		return nil, errors.TooManyRequests("Too many room requests, slow down")
	}

	if buyerID == "" || input.ArtisanID == "" {
		return nil, errors.BadRequest("Both buyer and artisan are required", nil)
	}
	if buyerID == input.ArtisanID {
		return nil, errors.BadRequest("You cannot open a room with yourself", nil)
	}

	artisan, err := uc.userRepo.GetByID(ctx, input.ArtisanID)
	if err != nil {
		return nil, err
	}

	roomType := entity.RoomTypeGeneral
	var product *entity.Product
	if input.ProductID != "" {
		product, err = uc.productRepo.GetByID(ctx, input.ProductID)
		if err != nil {
			return nil, err
		}
		if product.ArtisanID != input.ArtisanID {
			return nil, errors.BadRequest("Product does not belong to this artisan", nil)
		}
		roomType = entity.RoomTypeCustomization
	}

	proto := &entity.Room{
		Participants:        []string{buyerID, input.ArtisanID},
		BuyerID:             buyerID,
		ArtisanID:           input.ArtisanID,
		ProductID:           input.ProductID,
		OrderID:             input.OrderID,
		Type:                roomType,
		CustomizationStatus: entity.CustomizationStatusDraft,
		UnreadCount:         map[string]int{buyerID: 0, input.ArtisanID: 0},
		IsActive:            true,
	}

	room, created, err := uc.roomRepo.GetOrCreate(ctx, proto)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("Room %s created for buyer %s and artisan %s", room.ID, buyerID, input.ArtisanID)
	}

	return &RoomResponse{Room: room, Product: product, OtherUser: artisan}, nil
}

// ListRooms returns the user's active rooms, newest activity first.
func (uc *RoomUseCase) ListRooms(ctx context.Context, userID string, limit, offset int) ([]*RoomResponse, int64, error) {
	rooms, total, err := uc.roomRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		resp := &RoomResponse{Room: room}

		if room.ProductID != "" {
			if product, err := uc.productRepo.GetByID(ctx, room.ProductID); err == nil {
				resp.Product = product
			} else {
				logger.Warn("Product %s missing for room %s: %v", room.ProductID, room.ID, err)
			}
		}

		for _, participantID := range room.OtherParticipants(userID) {
			if other, err := uc.userRepo.GetByID(ctx, participantID); err == nil {
				resp.OtherUser = other
			}
			break
		}

		responses = append(responses, resp)
	}

	return responses, total, nil
}

// VerifyAccess reports whether the user may enter the room: true iff the user
// is a participant and the room is active. The error is reserved for lookup
// failures; lacking access is a false flag, not an error.
func (uc *RoomUseCase) VerifyAccess(ctx context.Context, userID, roomID string) (bool, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	return room.IsActive && room.HasParticipant(userID), nil
}

func (uc *RoomUseCase) GetRoom(ctx context.Context, userID, roomID string) (*RoomResponse, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive || !room.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this room", nil)
	}

	resp := &RoomResponse{Room: room}
	if room.ProductID != "" {
		if product, err := uc.productRepo.GetByID(ctx, room.ProductID); err == nil {
			resp.Product = product
		}
	}
	for _, participantID := range room.OtherParticipants(userID) {
		if other, err := uc.userRepo.GetByID(ctx, participantID); err == nil {
			resp.OtherUser = other
		}
		break
	}
	return resp, nil
}

// UpdateCustomization shallow-merges the patch into the room's negotiation
// payload; later fields win. A status value in the patch moves the quote state.
func (uc *RoomUseCase) UpdateCustomization(ctx context.Context, roomID, userID string, patch entity.CustomizationPatch) (*entity.Room, error) {
	if patch.IsEmpty() {
		return nil, errors.BadRequest("Patch must contain at least one field", nil)
	}

	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive || !room.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this room", nil)
	}

	status := room.CustomizationStatus
	if patch.Status != nil {
		if !entity.ValidCustomizationStatus(*patch.Status) {
			return nil, errors.BadRequest("Unknown customization status", nil)
		}
		status = *patch.Status
	}

	data := room.Customization
	data.Apply(patch)

	if err := uc.roomRepo.UpdateCustomization(ctx, roomID, data, status); err != nil {
		return nil, err
	}

	room.Customization = data
	room.CustomizationStatus = status
	return room, nil
}

// DeactivateRoom soft-deletes a room; its messages remain readable by id.
func (uc *RoomUseCase) DeactivateRoom(ctx context.Context, userID, roomID string) error {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasParticipant(userID) {
		return errors.Forbidden("You are not a participant of this room", nil)
	}
	if !room.IsActive {
		return nil
	}
	return uc.roomRepo.Deactivate(ctx, roomID)
}
