package webhook

import (
	"strings"
)

// PlatformRegistry maps webhook URLs to platform-specific formatters.
type PlatformRegistry struct {
	formatters map[Platform]PlatformFormatter
}

// NewPlatformRegistry creates a PlatformRegistry with all built-in formatters.
func NewPlatformRegistry() *PlatformRegistry {
	r := &PlatformRegistry{
		formatters: make(map[Platform]PlatformFormatter),
	}

	r.formatters[PlatformSlack] = &SlackFormatter{}
	r.formatters[PlatformDiscord] = &DiscordFormatter{}
	r.formatters[PlatformGeneric] = &GenericFormatter{}

	return r
}

// Detect determines the target Platform for a URL.
//
// Detection logic (priority order):
//  1. A non-empty registered override wins.
//  2. URL patterns:
//     - "hooks.slack.com" -> PlatformSlack
//     - "discord.com/api/webhooks", "discordapp.com/api/webhooks" -> PlatformDiscord
//  3. PlatformGeneric.
func (r *PlatformRegistry) Detect(url string, override string) Platform {
	if override != "" {
		p := Platform(strings.ToLower(override))
		if _, exists := r.formatters[p]; exists {
			return p
		}
	}

	lowerURL := strings.ToLower(url)

	if strings.Contains(lowerURL, "hooks.slack.com") {
		return PlatformSlack
	}
	if strings.Contains(lowerURL, "discord.com/api/webhooks") || strings.Contains(lowerURL, "discordapp.com/api/webhooks") {
		return PlatformDiscord
	}

	return PlatformGeneric
}

// Get returns the PlatformFormatter for the given platform.
// Returns the GenericFormatter if the platform is not registered.
func (r *PlatformRegistry) Get(p Platform) PlatformFormatter {
	if f, ok := r.formatters[p]; ok {
		return f
	}
	return r.formatters[PlatformGeneric]
}

// CheckDeprecation flags webhook URLs on hosts the platforms have retired.
func (r *PlatformRegistry) CheckDeprecation(url string) (warning string, isDeprecated bool) {
	if strings.Contains(strings.ToLower(url), "discordapp.com/api/webhooks") {
		return "discordapp.com webhook URLs are legacy. Use discord.com instead.", true
	}
	return "", false
}
