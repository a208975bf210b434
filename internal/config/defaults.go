package config

const (
	defaultConfigPath       = "~/.config/imgvault/config.toml"
	defaultArchiveRoot      = "~/.local/share/imgvault/archives"
	defaultOutputRoot       = "~/.local/share/imgvault/output"
	defaultCatalogPath      = "~/.local/share/imgvault/data.db"
	defaultLogDir           = "~/.local/share/imgvault/logs"
	defaultCompression      = CompressionSnappy
	defaultContainerName    = "images.ivc"
	defaultSidecarName      = "metadata.txt"
	defaultLabelerBaseURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultLabelerModel     = "google/gemini-2.5-flash"
	defaultLabelerReferer   = "https://github.com/imgvault/imgvault"
	defaultLabelerTitle     = "imgvault labeler"
	defaultLabelerTimeout   = 60
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Supported container block codecs.
const (
	CompressionSnappy = "snappy"
	CompressionNone   = "none"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ArchiveRoot: defaultArchiveRoot,
			OutputRoot:  defaultOutputRoot,
			CatalogPath: defaultCatalogPath,
			LogDir:      defaultLogDir,
		},
		Archive: Archive{
			Compression:   defaultCompression,
			ContainerName: defaultContainerName,
			SidecarName:   defaultSidecarName,
		},
		Labeler: Labeler{
			BaseURL:        defaultLabelerBaseURL,
			Model:          defaultLabelerModel,
			Referer:        defaultLabelerReferer,
			Title:          defaultLabelerTitle,
			TimeoutSeconds: defaultLabelerTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
