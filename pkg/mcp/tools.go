package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check the health of droidhub and whether the adb server or serial console is reachable"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List attached Android devices with their connection state (device, offline, unauthorized, recovery, ...)"),
		),
		s.handleListDevices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_device",
			mcp.WithDescription("Get detailed information about a device by serial"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device serial (e.g. emulator-5554) or console port path"),
			),
		),
		s.handleGetDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_device_state",
			mcp.WithDescription("Read the system properties of a device (getprop)"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device serial"),
			),
		),
		s.handleGetDeviceState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_device_state",
			mcp.WithDescription("Set system properties on a device (setprop). Keys under ro. are read-only and rejected."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device serial"),
			),
			mcp.WithObject("state",
				mcp.Required(),
				mcp.Description("Properties to set (e.g. {\"persist.sys.locale\": \"en-US\"})"),
			),
		),
		s.handleSetDeviceState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("run_shell",
			mcp.WithDescription("Run a command in the device shell and return its output and exit status"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device serial"),
			),
			mcp.WithString("command",
				mcp.Required(),
				mcp.Description("Shell command line (e.g. \"pm list packages\")"),
			),
		),
		s.handleRunShell,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("reboot",
			mcp.WithDescription("Reboot a device normally or into the bootloader or recovery"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device serial"),
			),
			mcp.WithString("mode",
				mcp.Description("Reboot mode"),
				mcp.Enum("normal", "bootloader", "recovery"),
			),
			mcp.WithBoolean("wait",
				mcp.Description("Wait until the device is back online (default false)"),
			),
		),
		s.handleReboot,
	)

	if s.commands != nil {
		s.mcpServer.AddTool(
			mcp.NewTool("command_history",
				mcp.WithDescription("List recent commands run against a device, newest first, with their outcome"),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("Device serial"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Maximum entries to return (default 20)"),
				),
			),
			s.handleCommandHistory,
		)
	}
}
