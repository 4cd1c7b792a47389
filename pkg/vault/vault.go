package vault

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "cryptodoc"

// Vault represents the local directories managed by cryptodoc
type Vault struct {
	RootPath    string
	ExportsPath string
	ReportsPath string
	CachePath   string
	ConfigDir   string
	ConfigPath  string
	SessionPath string
	LogPath     string
}

// New creates a new Vault instance with XDG-compliant paths
func New() (*Vault, error) {
	rootPath, rootErr := dataRoot()
	configDir, configErr := configRoot()
	cachePath, cacheErr := cacheRoot()
	if rootErr != nil {
		return nil, fmt.Errorf("failed to determine data root: %w", rootErr)
	}
	if configErr != nil {
		return nil, fmt.Errorf("failed to determine config path: %w", configErr)
	}
	if cacheErr != nil {
		return nil, fmt.Errorf("failed to determine cache path: %w", cacheErr)
	}

	return NewAt(rootPath, configDir, cachePath), nil
}

// NewAt builds a Vault from explicit roots
func NewAt(rootPath, configDir, cachePath string) *Vault {
	return &Vault{
		RootPath:    rootPath,
		ExportsPath: filepath.Join(rootPath, "exports"),
		ReportsPath: filepath.Join(rootPath, "reports"),
		CachePath:   cachePath,
		ConfigDir:   configDir,
		ConfigPath:  filepath.Join(configDir, "config.yaml"),
		SessionPath: filepath.Join(configDir, "session.yaml"),
		LogPath:     filepath.Join(cachePath, appName+".log"),
	}
}

// dataRoot follows the XDG Base Directory specification on Unix and uses
// AppData on Windows
func dataRoot() (string, error) {
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, appName), nil
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", appName), nil
}

func configRoot() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName+"-config"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

func cacheRoot() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}

	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return filepath.Join(localAppData, appName, "cache"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".cache", appName), nil
}

// Initialize creates the directory structure if it doesn't exist
func (v *Vault) Initialize() error {
	directories := []string{
		v.RootPath,
		v.ExportsPath,
		v.ReportsPath,
		v.CachePath,
		v.ConfigDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Exists checks if the directories have been initialized
func (v *Vault) Exists() bool {
	info, err := os.Stat(v.RootPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// GetExportPath returns the full path for an exported file
func (v *Vault) GetExportPath(filename string) string {
	return filepath.Join(v.ExportsPath, filename)
}

// GetReportPath returns the full path for a generated report
func (v *Vault) GetReportPath(filename string) string {
	return filepath.Join(v.ReportsPath, filename)
}

// GetCachePath returns the full path for a cached file
func (v *Vault) GetCachePath(filename string) string {
	return filepath.Join(v.CachePath, filename)
}

// CleanCache removes all files in the cache directory except the log
func (v *Vault) CleanCache() error {
	entries, err := os.ReadDir(v.CachePath)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(v.CachePath, entry.Name())
		if path == v.LogPath {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	return nil
}
