package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvBuildRoots lists the modules the daemon should track, as "name=dir"
// pairs separated by the OS path list separator (':' on POSIX, ';' on
// Windows), e.g. "name=dir:name2=dir2".
// Ignored when EnvConfigFile names a file that exists.
const EnvBuildRoots = "COCURSOR_BUILD_ROOTS"

// EnvConfigFile points at a YAML file describing the tracked modules,
// taking precedence over EnvBuildRoots when present.
const EnvConfigFile = "COCURSOR_CONFIG_FILE"

// EnvHTTPPort and EnvMCPPort override the daemon's default listen ports.
const (
	EnvHTTPPort = "COCURSOR_HTTP_PORT"
	EnvMCPPort  = "COCURSOR_MCP_PORT"
)

const (
	defaultHTTPPort = ":19960"
	defaultMCPPort  = ":19961"
)

const (
	defaultDebounceDelay     = 500 * time.Millisecond
	defaultFullScanThreshold = 24 * time.Hour
)

// Config is the daemon's top-level configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	WebSocket WebSocketConfig
	FSBuild   FSBuildConfig
}

// ServerConfig holds the daemon's listen ports.
type ServerConfig struct {
	HTTPPort string
	MCPPort  string
}

// DatabaseConfig holds the sqlite database path.
type DatabaseConfig struct {
	Path string
}

// WebSocketConfig tunes the change-event push hub.
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
}

// ModuleRoot pairs a module name with its production source root.
type ModuleRoot struct {
	Name    string `yaml:"name"`
	RootDir string `yaml:"rootDir"`
}

// fsBuildFile is the shape of the YAML file EnvConfigFile points at.
// DebounceDelay/FullScanThreshold are parsed with time.ParseDuration rather
// than relying on yaml.v3's scalar decoding into time.Duration, so the file
// can use Go duration strings like "250ms" or "1h".
type fsBuildFile struct {
	Modules           []ModuleRoot `yaml:"modules"`
	AlwaysScanFS      bool         `yaml:"alwaysScanFS"`
	DebounceDelay     string       `yaml:"debounceDelay"`
	FullScanThreshold string       `yaml:"fullScanThreshold"`
}

// FSBuildConfig lists the modules whose file-system state the daemon tracks
// and tunes how that state is kept in sync with the real file system.
type FSBuildConfig struct {
	Modules []ModuleRoot

	// AlwaysScanFS, when true, is passed to the domain FSState, whose
	// IsInitialScanPerformed then always reports false. It does not by
	// itself trigger a scan: the watcher decides on full scans from
	// FullScanThreshold alone.
	AlwaysScanFS bool
	// DebounceDelay coalesces bursts of watcher events for the same path.
	DebounceDelay time.Duration
	// FullScanThreshold triggers a startup re-scan when the last recorded
	// scan is older than this.
	FullScanThreshold time.Duration
}

// NewConfig builds the default configuration. Tracked modules are read
// from the YAML file named by EnvConfigFile if it exists, falling back to
// the EnvBuildRoots env-var encoding otherwise.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: envOrDefault(EnvHTTPPort, defaultHTTPPort),
			MCPPort:  envOrDefault(EnvMCPPort, defaultMCPPort),
		},
		Database: DatabaseConfig{
			Path: "",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		FSBuild: loadFSBuildConfig(),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadFSBuildConfig() FSBuildConfig {
	if path := os.Getenv(EnvConfigFile); path != "" {
		if cfg, err := loadFSBuildConfigFromYAML(path); err == nil {
			return cfg
		}
	}
	return FSBuildConfig{
		Modules:           parseBuildRoots(os.Getenv(EnvBuildRoots)),
		DebounceDelay:     defaultDebounceDelay,
		FullScanThreshold: defaultFullScanThreshold,
	}
}

func loadFSBuildConfigFromYAML(path string) (FSBuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FSBuildConfig{}, err
	}
	var file fsBuildFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return FSBuildConfig{}, err
	}

	debounce, err := parseDurationOrDefault(file.DebounceDelay, defaultDebounceDelay)
	if err != nil {
		return FSBuildConfig{}, err
	}
	threshold, err := parseDurationOrDefault(file.FullScanThreshold, defaultFullScanThreshold)
	if err != nil {
		return FSBuildConfig{}, err
	}

	return FSBuildConfig{
		Modules:           file.Modules,
		AlwaysScanFS:      file.AlwaysScanFS,
		DebounceDelay:     debounce,
		FullScanThreshold: threshold,
	}, nil
}

func parseDurationOrDefault(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

func parseBuildRoots(raw string) []ModuleRoot {
	if raw == "" {
		return nil
	}

	var roots []ModuleRoot
	for _, pair := range strings.Split(raw, string(os.PathListSeparator)) {
		name, dir, ok := strings.Cut(pair, "=")
		if !ok || name == "" || dir == "" {
			continue
		}
		roots = append(roots, ModuleRoot{Name: name, RootDir: dir})
	}
	return roots
}

// NewDatabaseConfig returns cfg's database section.
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewServerConfig returns cfg's server section.
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewFSBuildConfig returns cfg's tracked-modules section.
func NewFSBuildConfig(cfg *Config) *FSBuildConfig {
	return &cfg.FSBuild
}
