package enums

import (
	"slices"
	"strings"
)

// SocialProvider names an external identity provider offered on the login screen.
type SocialProvider string

const (
	SocialProviderGoogle   SocialProvider = "google"
	SocialProviderFacebook SocialProvider = "facebook"
	SocialProviderApple    SocialProvider = "apple"
)

var validSocialProviders = []SocialProvider{
	SocialProviderGoogle,
	SocialProviderFacebook,
	SocialProviderApple,
}

// String implements fmt.Stringer.
func (s SocialProvider) String() string {
	return string(s)
}

// DisplayName returns the provider name with an upper-cased first letter.
func (s SocialProvider) DisplayName() string {
	if s == "" {
		return ""
	}
	raw := string(s)
	return strings.ToUpper(raw[:1]) + raw[1:]
}

// IsValid reports whether the value is a known SocialProvider.
func (s SocialProvider) IsValid() bool {
	return slices.Contains(validSocialProviders, s)
}

// ParseSocialProvider converts raw input (case-insensitive) into a SocialProvider.
func ParseSocialProvider(value string) (SocialProvider, error) {
	return parse(value, validSocialProviders, "social provider")
}
