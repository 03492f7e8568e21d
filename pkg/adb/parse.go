package adb

import (
	"bufio"
	"regexp"
	"sort"
	"strings"

	"github.com/urmzd/droidhub/pkg/device"
)

var propLine = regexp.MustCompile(`^\[([^\]]+)\]: \[(.*)\]$`)

// ParseDevices parses the output of `adb devices -l`.
func ParseDevices(out string) []device.Device {
	var devices []device.Device

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		d := device.Device{
			ID:          fields[0],
			State:       fields[1],
			Protocol:    device.ProtocolADB,
			StateSchema: device.PropertySchema,
		}
		if d.State == "no" && len(fields) > 2 && fields[2] == "permissions" {
			d.State = "no permissions"
		}

		for _, f := range fields[2:] {
			key, val, ok := strings.Cut(f, ":")
			if !ok {
				continue
			}
			switch key {
			case "product":
				d.Product = val
			case "model":
				d.Model = val
			case "device":
				d.DeviceName = val
			case "transport_id":
				d.TransportID = val
			}
		}

		d.Name = d.ID
		if d.Model != "" {
			d.Name = strings.ReplaceAll(d.Model, "_", " ")
		}
		devices = append(devices, d)
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

// ParseProps parses `getprop` output. Properties with multi-line values are skipped.
func ParseProps(out string) map[string]string {
	props := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		m := propLine.FindStringSubmatch(strings.TrimRight(sc.Text(), "\r"))
		if m == nil {
			continue
		}
		props[m[1]] = m[2]
	}
	return props
}

// Quote single-quotes s for the device shell.
func Quote(s string) string {
	if s != "" && strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("._-/:=@%+,", r):
		return false
	}
	return true
}
