package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/droidhub/pkg/api/types"
	"github.com/urmzd/droidhub/pkg/device"
	"github.com/urmzd/droidhub/pkg/device/schema"
)

// ControlHandler handles device state endpoints
type ControlHandler struct {
	controller device.Controller
	validator  *schema.Validator
}

// NewControlHandler creates a new control handler
func NewControlHandler(controller device.Controller, validator *schema.Validator) *ControlHandler {
	return &ControlHandler{controller: controller, validator: validator}
}

// GetState handles GET /devices/:id/state
// @Summary      Get device state
// @Description  Returns the system properties of a device
// @Tags         state
// @Produce      json
// @Param        id   path      string  true  "Device serial"
// @Success      200  {object}  types.StateResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      502  {object}  types.ErrorResponse  "Command failed"
// @Failure      503  {object}  types.ErrorResponse  "Device unreachable"
// @Failure      504  {object}  types.ErrorResponse  "Command timed out"
// @Router       /devices/{id}/state [get]
func (h *ControlHandler) GetState(c *gin.Context) {
	id := c.Param("id")

	state, err := h.controller.GetDeviceState(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, types.StateResponse{
		Device:    id,
		State:     state,
		Timestamp: time.Now(),
	})
}

// SetState handles POST /devices/:id/state
// @Summary      Set device state
// @Description  Sets system properties from a JSON object validated against the device's state schema
// @Tags         state
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Device serial"
// @Param        request  body      object  true  "Properties to set"
// @Success      200      {object}  types.StateResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Failure      502      {object}  types.ErrorResponse  "Command failed"
// @Failure      503      {object}  types.ErrorResponse  "Device unreachable"
// @Failure      504      {object}  types.ErrorResponse  "Command timed out"
// @Router       /devices/{id}/state [post]
func (h *ControlHandler) SetState(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var payload map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body must be a JSON object: " + err.Error(),
		})
		return
	}

	d, err := h.controller.GetDevice(ctx, id)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	if err := h.validator.Validate(d.StateSchema, payload); err != nil {
		writeError(c, err, nil)
		return
	}

	state, err := h.controller.SetDeviceState(ctx, id, payload)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, types.StateResponse{
		Device:    id,
		State:     state,
		Timestamp: time.Now(),
	})
}
