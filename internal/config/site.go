package config

// SiteConfig holds overrides for a single site, keyed by host.
type SiteConfig struct {
	// MustInclude only follows links containing this substring.
	MustInclude string `yaml:"mustInclude,omitempty"`

	// DomainRestriction overrides same-host confinement. Nil keeps the
	// inherited value.
	DomainRestriction *bool `yaml:"domainRestriction,omitempty"`

	// MaxTokens overrides the chunk token budget. Zero keeps the inherited value.
	MaxTokens int `yaml:"maxTokens,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// File is the structure of the .sitecorpus configuration file.
type File struct {
	// Sites maps a host (e.g. "docs.example.com") to its overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the defaults merged with the overrides for host.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if sc, ok := cf.Sites[host]; ok {
		if sc.MustInclude != "" {
			result.MustInclude = sc.MustInclude
		}
		if sc.DomainRestriction != nil {
			result.DomainRestriction = sc.DomainRestriction
		}
		if sc.MaxTokens != 0 {
			result.MaxTokens = sc.MaxTokens
		}
		if sc.UserAgent != "" {
			result.UserAgent = sc.UserAgent
		}
	}

	return result
}
