// Package platform describes the host: where its caches live, who runs the
// process and how full the disk is.
package platform

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/fenilsonani/cachescope/internal/analyzer"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Windows Platform = "windows"
	Unknown Platform = "unknown"
)

// Info contains platform-specific information and paths
type Info struct {
	OS       Platform
	Name     string
	Version  string
	Arch     string
	Hostname string
	Username string

	HomeDir    string
	TempDir    string
	CacheHome  string
	ConfigHome string
	DataHome   string

	// Windows profile directories, empty elsewhere
	AppData      string
	LocalAppData string

	ProtectedPaths []string
}

// Detect returns the current platform
func Detect() Platform {
	return parsePlatform(runtime.GOOS)
}

func parsePlatform(goos string) Platform {
	switch goos {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	case "windows":
		return Windows
	default:
		return Unknown
	}
}

// GetInfo returns information about the running host. Host details that
// cannot be read are left empty; only an unknown user is an error.
func GetInfo(ctx context.Context) (*Info, error) {
	platform := Detect()
	if platform == Unknown {
		return nil, ErrUnsupportedPlatform
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}

	info := Resolve(platform, currentUser.HomeDir, os.Getenv)
	info.Username = currentUser.Username
	info.TempDir = os.TempDir()
	info.Arch = runtime.GOARCH

	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = hi.Hostname
		if hi.Platform != "" {
			info.Name = hi.Platform
		}
		info.Version = hi.PlatformVersion
		if hi.KernelArch != "" {
			info.Arch = hi.KernelArch
		}
	} else if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}

	return info, nil
}

// Resolve fills in the per-user directories of platform for home, reading
// overrides such as XDG_CACHE_HOME through getenv
func Resolve(platform Platform, homeDir string, getenv func(string) string) *Info {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" && filepath.IsAbs(v) {
			return v
		}
		return fallback
	}

	info := &Info{OS: platform, Name: string(platform), HomeDir: homeDir}
	switch platform {
	case MacOS:
		info.Name = "macOS"
		info.CacheHome = filepath.Join(homeDir, "Library", "Caches")
		info.ConfigHome = filepath.Join(homeDir, "Library", "Application Support")
		info.DataHome = filepath.Join(homeDir, "Library", "Application Support")
		info.ProtectedPaths = macOSProtectedPaths(homeDir)
	case Linux:
		info.Name = "Linux"
		info.CacheHome = env("XDG_CACHE_HOME", filepath.Join(homeDir, ".cache"))
		info.ConfigHome = env("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config"))
		info.DataHome = env("XDG_DATA_HOME", filepath.Join(homeDir, ".local", "share"))
		info.ProtectedPaths = linuxProtectedPaths(homeDir, info.ConfigHome, info.DataHome)
	case Windows:
		info.Name = "Windows"
		info.AppData = env("APPDATA", filepath.Join(homeDir, "AppData", "Roaming"))
		info.LocalAppData = env("LOCALAPPDATA", filepath.Join(homeDir, "AppData", "Local"))
		info.CacheHome = info.LocalAppData
		info.ConfigHome = info.AppData
		info.DataHome = info.LocalAppData
		info.ProtectedPaths = windowsProtectedPaths(homeDir, info.AppData, info.LocalAppData)
	}
	return info
}

// PlatformInfo returns the identity recorded in snapshot metadata
func (i *Info) PlatformInfo() analyzer.PlatformInfo {
	return analyzer.PlatformInfo{
		Name:     i.Name,
		Version:  i.Version,
		Hostname: i.Hostname,
		Username: i.Username,
	}
}

// ConfigDir returns the directory holding app's configuration
func (i *Info) ConfigDir(app string) string {
	if i.OS == MacOS || i.ConfigHome == "" {
		// CLI tools on macOS conventionally use ~/.config too
		return filepath.Join(i.HomeDir, ".config", app)
	}
	return filepath.Join(i.ConfigHome, app)
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
