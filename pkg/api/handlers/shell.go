package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/droidhub/pkg/api/types"
	"github.com/urmzd/droidhub/pkg/device"
)

// ShellHandler runs shell commands on devices
type ShellHandler struct {
	controller device.Controller
}

// NewShellHandler creates a new shell handler
func NewShellHandler(controller device.Controller) *ShellHandler {
	return &ShellHandler{controller: controller}
}

// Run handles POST /devices/:id/shell
// @Summary      Run shell command
// @Description  Runs a command in the device shell and returns its output and exit status. A non-zero exit status yields 502 with the output attached.
// @Tags         shell
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Device serial"
// @Param        request  body      types.ShellRequest  true  "Command to run"
// @Success      200      {object}  types.ShellResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Failure      502      {object}  types.ErrorResponse  "Command failed"
// @Failure      503      {object}  types.ErrorResponse  "Device unreachable"
// @Failure      504      {object}  types.ErrorResponse  "Command timed out"
// @Router       /devices/{id}/shell [post]
func (h *ShellHandler) Run(c *gin.Context) {
	var req types.ShellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	res, err := h.controller.RunShell(c.Request.Context(), c.Param("id"), req.Command)
	if err != nil {
		writeError(c, err, res)
		return
	}

	c.JSON(http.StatusOK, types.ShellResponse{
		Device:     res.Device,
		Command:    res.Command,
		Output:     res.Output,
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
	})
}
