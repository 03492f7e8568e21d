package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/droidhub/pkg/device"
)

const defaultHistoryLimit = 20

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	controllerStatus := "disconnected"
	if s.controller.IsConnected() {
		controllerStatus = "connected"
	}

	status := "healthy"
	if controllerStatus != "connected" {
		status = "unhealthy"
	}

	out := GetHealthOutput{
		Status:     status,
		Controller: controllerStatus,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := s.controller.ListDevices(ctx)
	if err != nil {
		return toolError("failed to list devices", err), nil
	}

	infos := make([]DeviceInfo, 0, len(devices))
	for i := range devices {
		infos = append(infos, DeviceToInfo(&devices[i]))
	}

	out := ListDevicesOutput{
		Devices: infos,
		Count:   len(infos),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.controller.GetDevice(ctx, id)
	if err != nil {
		return toolError("failed to get device", err), nil
	}

	out := GetDeviceOutput{Device: DeviceToInfo(d)}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetDeviceState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.controller.GetDeviceState(ctx, id)
	if err != nil {
		return toolError("failed to get device state", err), nil
	}

	out := GetDeviceStateOutput{
		DeviceID: id,
		State:    state,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSetDeviceState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()

	// State may be a nested "state" object or flat args beside "id"
	stateMap := map[string]any{}
	if stateRaw, ok := args["state"]; ok {
		if sm, ok := stateRaw.(map[string]any); ok {
			stateMap = sm
		}
	} else {
		for k, v := range args {
			if k != "id" {
				stateMap[k] = v
			}
		}
	}

	if s.validator != nil {
		d, err := s.controller.GetDevice(ctx, id)
		if err != nil {
			return toolError("failed to get device", err), nil
		}
		if err := s.validator.Validate(d.StateSchema, stateMap); err != nil {
			return toolError("invalid state", err), nil
		}
	}

	state, err := s.controller.SetDeviceState(ctx, id, stateMap)
	if err != nil {
		return toolError("failed to set device state", err), nil
	}

	out := SetDeviceStateOutput{
		DeviceID: id,
		State:    state,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleRunShell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	command, err := requiredString(request, "command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.controller.RunShell(ctx, id, command)
	if err != nil {
		result := toolError("shell command failed", err)
		if res != nil && res.Output != "" {
			result.Content = append(result.Content, mcp.NewTextContent(res.Output))
		}
		return result, nil
	}

	out := RunShellOutput{
		DeviceID:   id,
		Output:     res.Output,
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleReboot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mode := "normal"
	if m, ok := request.GetArguments()["mode"].(string); ok && m != "" {
		mode = m
	}
	target := mode
	if mode == "normal" {
		target = device.RebootNormal
	}

	if err := s.controller.Reboot(ctx, id, target); err != nil {
		return toolError("failed to reboot device", err), nil
	}

	message := fmt.Sprintf("Device %s is rebooting (%s)", id, mode)
	if wait, _ := request.GetArguments()["wait"].(bool); wait {
		if err := device.WaitForDevice(ctx, s.controller, id); err != nil {
			return toolError("device did not come back", err), nil
		}
		message = fmt.Sprintf("Device %s rebooted (%s) and is online", id, mode)
	}

	out := RebootOutput{
		DeviceID: id,
		Mode:     mode,
		Message:  message,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleCommandHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := defaultHistoryLimit
	if l, ok := request.GetArguments()["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	entries, err := s.commands.Recent(ctx, id, limit)
	if err != nil {
		return toolError("failed to read command history", err), nil
	}

	out := CommandHistoryOutput{DeviceID: id, Commands: make([]CommandRecord, 0, len(entries))}
	for _, e := range entries {
		out.Commands = append(out.Commands, CommandRecord{
			Command:   strings.Join(e.Command, " "),
			Outcome:   e.Outcome,
			Message:   e.Message,
			ExitCode:  e.ExitCode,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

// toolError prefixes the error kind so agents can branch on it.
func toolError(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s: %s", errorKind(err), action, err))
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, device.ErrNotFound):
		return "not_found"
	case errors.Is(err, device.ErrValidation):
		return "validation_error"
	case errors.Is(err, device.ErrUnsupported):
		return "unsupported"
	}
	return device.KindOf(err).String()
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
