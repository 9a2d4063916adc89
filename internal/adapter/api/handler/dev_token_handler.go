package handler

import (
	"github.com/labstack/echo/v4"

	"craftmarket/internal/infrastructure/firebase"
	"craftmarket/pkg/response"
)

// DevTokenHandler mints local tokens so the API and websocket can be exercised
// without a Firebase project. Its route is only mounted in development.
type DevTokenHandler struct {
	authClient *firebase.AuthClient
}

func NewDevTokenHandler(authClient *firebase.AuthClient) *DevTokenHandler {
	return &DevTokenHandler{authClient: authClient}
}

type devTokenRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	token, err := h.authClient.GenerateDevToken(req.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"token": token})
}
