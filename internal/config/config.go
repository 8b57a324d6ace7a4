package config

// Config represents the full application configuration.
type Config struct {
	Git           GitConfig           `yaml:"git"`
	GitHub        GitHubConfig        `yaml:"github"`
	HTTP          HTTPConfig          `yaml:"http"`
	Store         StoreConfig         `yaml:"store"`
	Watch         WatchConfig         `yaml:"watch"`
	Output        OutputConfig        `yaml:"output"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// GitConfig locates the repository the session works against.
type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
}

// GitHubConfig identifies the pull request host and repository coordinates.
type GitHubConfig struct {
	BaseURL string `yaml:"baseURL"`
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Remote  string `yaml:"remote"`
	Token   string `yaml:"token"`
	User    string `yaml:"user"`
}

// HTTPConfig holds API client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WatchConfig tunes the working tree watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`  // debug, info, error
	Format  string `yaml:"format"` // json, human
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Git = chooseGit(base.Git, overlay.Git)
	result.GitHub = mergeGitHub(base.GitHub, overlay.GitHub)
	result.HTTP = chooseHTTP(base.HTTP, overlay.HTTP)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Watch = chooseWatch(base.Watch, overlay.Watch)
	result.Output = chooseOutput(base.Output, overlay.Output)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)

	return result
}

func chooseGit(base, overlay GitConfig) GitConfig {
	if overlay.RepositoryDir != "" {
		return overlay
	}
	return base
}

// mergeGitHub merges field-wise so an override for one coordinate does not
// clobber the rest.
func mergeGitHub(base, overlay GitHubConfig) GitHubConfig {
	result := base
	if overlay.BaseURL != "" {
		result.BaseURL = overlay.BaseURL
	}
	if overlay.Owner != "" {
		result.Owner = overlay.Owner
	}
	if overlay.Repo != "" {
		result.Repo = overlay.Repo
	}
	if overlay.Remote != "" {
		result.Remote = overlay.Remote
	}
	if overlay.Token != "" {
		result.Token = overlay.Token
	}
	if overlay.User != "" {
		result.User = overlay.User
	}
	return result
}

func chooseHTTP(base, overlay HTTPConfig) HTTPConfig {
	if overlay.Timeout != "" || overlay.MaxRetries != 0 || overlay.InitialBackoff != "" || overlay.MaxBackoff != "" || overlay.BackoffMultiplier != 0 {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseWatch(base, overlay WatchConfig) WatchConfig {
	if overlay.Debounce != "" {
		return overlay
	}
	return base
}

func chooseOutput(base, overlay OutputConfig) OutputConfig {
	if overlay.Directory != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base

	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}

	return result
}
