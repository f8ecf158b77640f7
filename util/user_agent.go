package util

import (
	"strings"

	"github.com/mssola/user_agent"
)

// Device classes for the rollup tables.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceUnknown = "unknown"
)

type deviceRule struct {
	tokens     []string
	deviceType string
}

// deviceRules are evaluated top to bottom, first match wins. Order matters:
// specific tokens come before broader ones (iPad before Mobile), so the rules
// are not commutative and must never be reordered.
var deviceRules = []deviceRule{
	{[]string{"ipad"}, DeviceTablet},
	{[]string{"iphone"}, DeviceMobile},
	{[]string{"android", "mobile"}, DeviceMobile},
	{[]string{"android"}, DeviceTablet},
	{[]string{"mobile"}, DeviceMobile},
	{[]string{"windows"}, DeviceDesktop},
	{[]string{"macintosh"}, DeviceDesktop},
	{[]string{"x11"}, DeviceDesktop},
}

// GetDeviceType classifies a user-agent string into a device class.
func GetDeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)
	if ua == "" {
		return DeviceUnknown
	}
	for _, rule := range deviceRules {
		matched := true
		for _, token := range rule.tokens {
			if !strings.Contains(ua, token) {
				matched = false
				break
			}
		}
		if matched {
			return rule.deviceType
		}
	}
	return DeviceUnknown
}

// GetBrowser returns browser name and version for a user-agent string.
func GetBrowser(userAgent string) (string, string) {
	if userAgent == "" {
		return "", ""
	}
	p := user_agent.New(userAgent)
	return p.Browser()
}

// GetOS returns the operating system name for a user-agent string.
func GetOS(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	p := user_agent.New(userAgent)
	return p.OSInfo().Name
}
