package config

// File represents the structure of the .raventrace credentials file.
//
// Example:
//
//	api_keys:
//	  emailrep: "key1"
//	  hibp: "key2"
//	user_agent: "CustomAgent/1.0"
type File struct {
	// APIKeys maps provider names to their API keys. Providers without a
	// key fall back to unauthenticated access or are limited to their
	// public endpoints.
	APIKeys map[string]string `yaml:"api_keys,omitempty"`

	// UserAgent overrides the default User-Agent header when non-empty.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Locale is a default region hint for phone queries, used when the
	// --locale flag is not given.
	Locale string `yaml:"locale,omitempty"`
}

// APIKey returns the key configured for a provider, or "" when absent.
// Safe to call on a nil File.
func (cf *File) APIKey(provider string) string {
	if cf == nil {
		return ""
	}
	return cf.APIKeys[provider]
}

// Keys returns the full provider-to-key map, never nil.
// Safe to call on a nil File.
func (cf *File) Keys() map[string]string {
	if cf == nil || cf.APIKeys == nil {
		return map[string]string{}
	}
	return cf.APIKeys
}
