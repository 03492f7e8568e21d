package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/droidhub/pkg/api/types"
	"github.com/urmzd/droidhub/pkg/device"
)

// DevicesHandler handles device listing and lifecycle endpoints
type DevicesHandler struct {
	controller device.Controller
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(controller device.Controller) *DevicesHandler {
	return &DevicesHandler{controller: controller}
}

// ListDevices handles GET /devices
// @Summary      List devices
// @Description  Returns every device known to the transport, including offline and unauthorized ones
// @Tags         devices
// @Produce      json
// @Success      200  {object}  types.ListDevicesResponse
// @Failure      503  {object}  types.ErrorResponse  "adb server unreachable"
// @Failure      500  {object}  types.ErrorResponse  "Device error"
// @Router       /devices [get]
func (h *DevicesHandler) ListDevices(c *gin.Context) {
	devices, err := h.controller.ListDevices(c.Request.Context())
	if err != nil {
		writeError(c, err, nil)
		return
	}

	infos := make([]types.DeviceInfo, 0, len(devices))
	for i := range devices {
		infos = append(infos, toInfo(&devices[i]))
	}

	c.JSON(http.StatusOK, types.ListDevicesResponse{
		Devices: infos,
		Count:   len(infos),
	})
}

// GetDevice handles GET /devices/:id
// @Summary      Get device
// @Description  Returns a single device by serial
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device serial"
// @Success      200  {object}  types.DeviceResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      503  {object}  types.ErrorResponse  "adb server unreachable"
// @Router       /devices/{id} [get]
func (h *DevicesHandler) GetDevice(c *gin.Context) {
	d, err := h.controller.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, types.DeviceResponse{Device: toInfo(d)})
}

// Reboot handles POST /devices/:id/reboot
// @Summary      Reboot device
// @Description  Reboots a device normally, or into the bootloader or recovery. With wait set, responds once the device is back online.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id       path      string               true   "Device serial"
// @Param        request  body      types.RebootRequest  false  "Reboot mode"
// @Success      200      {object}  types.RebootResponse  "Device back online"
// @Success      202      {object}  types.RebootResponse  "Reboot started"
// @Failure      400      {object}  types.ErrorResponse  "Unknown mode"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Failure      502      {object}  types.ErrorResponse  "Command failed"
// @Failure      503      {object}  types.ErrorResponse  "Device unreachable"
// @Failure      501      {object}  types.ErrorResponse  "Transport cannot wait"
// @Failure      504      {object}  types.ErrorResponse  "Command timed out"
// @Router       /devices/{id}/reboot [post]
func (h *DevicesHandler) Reboot(c *gin.Context) {
	var req types.RebootRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
	}

	id := c.Param("id")
	ctx := c.Request.Context()
	if err := h.controller.Reboot(ctx, id, req.Mode); err != nil {
		writeError(c, err, nil)
		return
	}

	mode := req.Mode
	if mode == device.RebootNormal {
		mode = "normal"
	}

	if !req.Wait {
		c.JSON(http.StatusAccepted, types.RebootResponse{
			Device: id,
			Mode:   mode,
			Status: "rebooting",
		})
		return
	}

	if err := device.WaitForDevice(ctx, h.controller, id); err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, types.RebootResponse{
		Device: id,
		Mode:   mode,
		Status: "online",
	})
}
