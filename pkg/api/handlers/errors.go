package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/droidhub/pkg/api/types"
	"github.com/urmzd/droidhub/pkg/device"
)

// StatusFor maps an error to an HTTP status and the error code sent to clients.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, device.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, device.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, device.ErrUnsupported):
		return http.StatusNotImplemented, "unsupported"
	}

	de, ok := device.AsError(err)
	if !ok {
		return http.StatusInternalServerError, device.KindOther.String()
	}

	switch de.Kind() {
	case device.KindCommandFailed:
		return http.StatusBadGateway, de.Kind().String()
	case device.KindCommandTimeout:
		return http.StatusGatewayTimeout, de.Kind().String()
	case device.KindDeviceUnreachable:
		return http.StatusServiceUnavailable, de.Kind().String()
	default:
		return http.StatusInternalServerError, de.Kind().String()
	}
}

// writeError responds with the mapped status. res carries the output of a
// shell command that ran but failed.
func writeError(c *gin.Context, err error, res *device.CommandResult) {
	status, code := StatusFor(err)

	body := types.ErrorResponse{Error: code, Message: err.Error()}
	if res != nil {
		exitCode := res.ExitCode
		body.ExitCode = &exitCode
		body.Output = res.Output
	}

	if status >= http.StatusInternalServerError {
		log.Warn().Err(err).Str("kind", code).Str("device", c.Param("id")).Msg("Device request failed")
	}
	c.JSON(status, body)
}

func toInfo(d *device.Device) types.DeviceInfo {
	return types.DeviceInfo{
		Serial:      d.ID,
		Name:        d.Name,
		State:       d.State,
		Protocol:    d.Protocol,
		Product:     d.Product,
		Model:       d.Model,
		Device:      d.DeviceName,
		TransportID: d.TransportID,
		StateSchema: d.StateSchema,
	}
}
