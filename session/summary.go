package session

import (
	"time"

	"github.com/mileusna/useragent"
)

// Summary is the client-facing view of a session. It never carries the
// token hash.
type Summary struct {
	ID         string     `json:"id"`
	FamilyID   string     `json:"family_id"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	Browser    string     `json:"browser"`
	OS         string     `json:"os"`
	Device     string     `json:"device"`
	DeviceType string     `json:"device_type"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	Active     bool       `json:"active"`
	Current    bool       `json:"current"`
}

func Summarize(s Session, now time.Time, currentID string) Summary {
	browser, os, device, deviceType := describeUserAgent(s.UserAgent)
	return Summary{
		ID:         s.ID,
		FamilyID:   s.FamilyID,
		IPAddress:  s.IPAddress,
		UserAgent:  s.UserAgent,
		Browser:    browser,
		OS:         os,
		Device:     device,
		DeviceType: deviceType,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
		RevokedAt:  s.RevokedAt,
		Active:     s.Active(now),
		Current:    currentID != "" && s.ID == currentID,
	}
}

func describeUserAgent(raw string) (browser, os, device, deviceType string) {
	if raw == "" {
		return "Unknown Browser", "Unknown OS", "Unknown Device", "Unknown"
	}

	ua := useragent.Parse(raw)

	browser = "Unknown Browser"
	if ua.Name != "" {
		browser = joinVersion(ua.Name, ua.Version)
	}

	os = "Unknown OS"
	if ua.OS != "" {
		os = joinVersion(ua.OS, ua.OSVersion)
	}

	switch {
	case ua.Bot:
		deviceType = "Bot"
	case ua.Mobile:
		deviceType = "Mobile"
	case ua.Tablet:
		deviceType = "Tablet"
	default:
		deviceType = "Desktop"
	}

	device = ua.Device
	if device == "" {
		switch deviceType {
		case "Mobile":
			device = "Mobile Device"
		case "Tablet":
			device = "Tablet"
		case "Bot":
			device = "Bot"
		default:
			device = "Desktop Computer"
		}
	}

	return browser, os, device, deviceType
}

func joinVersion(name, version string) string {
	if version == "" {
		return name
	}
	return name + " " + version
}
