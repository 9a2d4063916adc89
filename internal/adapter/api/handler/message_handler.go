package handler

import (
	"github.com/labstack/echo/v4"

	"craftmarket/internal/usecase"
	"craftmarket/pkg/response"
	"craftmarket/pkg/utils"
)

type MessageHandler struct {
	messageUseCase  *usecase.MessageUseCase
	historyPageSize int
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase, historyPageSize int) *MessageHandler {
	return &MessageHandler{
		messageUseCase:  messageUseCase,
		historyPageSize: historyPageSize,
	}
}

type sendMessageRequest struct {
	RoomID  string `json:"room_id" validate:"required"`
	Message string `json:"message"`
	Type    string `json:"type" validate:"omitempty,oneof=text image file system"`
	FileURL string `json:"file_url,omitempty" validate:"omitempty,url"`
}

// SendMessage persists a message over REST; connected room members receive it
// through their sockets.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.messageUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		RoomID:  req.RoomID,
		Body:    req.Message,
		Type:    req.Type,
		FileURL: req.FileURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetHistory returns a page of room messages. Fetching a page doubles as the
// read receipt for the caller.
func (h *MessageHandler) GetHistory(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c, h.historyPageSize)

	messages, total, err := h.messageUseCase.GetHistory(c.Request().Context(), userID, c.Param("id"), params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, params.Page, params.PageSize)
}
