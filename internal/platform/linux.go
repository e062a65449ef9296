package platform

import (
	"path/filepath"

	"github.com/fenilsonani/cachescope/internal/scanner"
)

func linuxCatalog(info *Info) []scanner.Location {
	home := info.HomeDir
	cache := info.CacheHome
	config := info.ConfigHome
	data := info.DataHome

	return []scanner.Location{
		// Browser caches
		loc(filepath.Join(cache, "google-chrome"), "Google Chrome Cache", scanner.CategoryBrowser, "Google Chrome browser cache", app("Chrome")),
		loc(filepath.Join(cache, "chromium"), "Chromium Cache", scanner.CategoryBrowser, "Chromium browser cache", app("Chromium")),
		loc(filepath.Join(cache, "mozilla"), "Firefox Cache", scanner.CategoryBrowser, "Mozilla Firefox browser cache", app("Firefox")),
		loc(filepath.Join(cache, "BraveSoftware"), "Brave Browser Cache", scanner.CategoryBrowser, "Brave browser cache", app("Brave")),
		loc(filepath.Join(cache, "microsoft-edge"), "Microsoft Edge Cache", scanner.CategoryBrowser, "Microsoft Edge browser cache", app("Edge")),
		loc(filepath.Join(config, "google-chrome", "Default", "Service Worker"), "Chrome Service Workers", scanner.CategoryBrowser, "Chrome service worker storage", app("Chrome")),
		loc(filepath.Join(config, "chromium", "Default", "Service Worker"), "Chromium Service Workers", scanner.CategoryBrowser, "Chromium service worker storage", app("Chromium")),

		// Developer tools
		loc(filepath.Join(cache, "go-build"), "Go Build Cache", scanner.CategoryDevelopment, "Go compiler build cache", app("Go")),
		loc(filepath.Join(cache, "pip"), "pip Cache", scanner.CategoryDevelopment, "Python pip download cache", app("pip")),
		loc(filepath.Join(cache, "uv"), "uv Cache", scanner.CategoryDevelopment, "Python uv package cache", app("uv")),
		loc(filepath.Join(cache, "yarn"), "Yarn Cache", scanner.CategoryDevelopment, "Yarn package cache", app("Yarn")),
		loc(filepath.Join(cache, "pnpm"), "pnpm Cache", scanner.CategoryDevelopment, "pnpm package cache", app("pnpm")),
		loc(filepath.Join(cache, "node-gyp"), "node-gyp Cache", scanner.CategoryDevelopment, "Node native addon headers", app("node-gyp")),
		loc(filepath.Join(cache, "typescript"), "TypeScript Cache", scanner.CategoryDevelopment, "TypeScript type acquisition cache", app("TypeScript")),
		loc(filepath.Join(cache, "JetBrains"), "JetBrains Cache", scanner.CategoryDevelopment, "JetBrains IDE caches and indexes", app("JetBrains")),
		loc(filepath.Join(cache, "bazel"), "Bazel Cache", scanner.CategoryDevelopment, "Bazel output and repository cache", app("Bazel")),
		loc(filepath.Join(cache, "pre-commit"), "pre-commit Cache", scanner.CategoryDevelopment, "pre-commit hook environments", app("pre-commit")),
		loc(filepath.Join(cache, "huggingface"), "HuggingFace Models", scanner.CategoryDevelopment, "Downloaded models and datasets", risk(scanner.RiskModerate), app("HuggingFace")),
		loc(filepath.Join(cache, "puppeteer"), "Puppeteer Browsers", scanner.CategoryDevelopment, "Browsers downloaded by Puppeteer", app("Puppeteer")),
		loc(filepath.Join(home, ".npm", "_cacache"), "NPM Cache", scanner.CategoryDevelopment, "npm content-addressable cache", app("npm")),
		loc(filepath.Join(home, ".yarn", "cache"), "Yarn Berry Cache", scanner.CategoryDevelopment, "Yarn 2+ offline cache", app("Yarn")),
		loc(filepath.Join(home, ".gradle", "caches"), "Gradle Cache", scanner.CategoryDevelopment, "Gradle dependency and build cache", app("Gradle")),
		loc(filepath.Join(home, ".m2", "repository"), "Maven Repository", scanner.CategoryDevelopment, "Maven local repository, re-downloaded on build", risk(scanner.RiskModerate), app("Maven")),
		loc(filepath.Join(home, ".cargo", "registry", "cache"), "Cargo Registry Cache", scanner.CategoryDevelopment, "Downloaded crate archives", app("Cargo")),
		loc(filepath.Join(home, "go", "pkg", "mod", "cache"), "Go Module Cache", scanner.CategoryDevelopment, "Go module download cache", app("Go")),
		loc(filepath.Join(home, ".docker", "buildx"), "Docker Buildx Cache", scanner.CategoryDevelopment, "Docker buildx builder state", risk(scanner.RiskModerate), app("Docker")),
		loc(filepath.Join(home, ".composer", "cache"), "Composer Cache", scanner.CategoryDevelopment, "PHP Composer package cache", app("Composer")),
		loc(filepath.Join(home, ".gem", "cache"), "Ruby Gem Cache", scanner.CategoryDevelopment, "Downloaded gem archives", app("RubyGems")),
		loc(filepath.Join(config, "Code", "Cache"), "VS Code Cache", scanner.CategoryDevelopment, "VS Code renderer cache", app("VS Code")),
		loc(filepath.Join(config, "Code", "CachedData"), "VS Code CachedData", scanner.CategoryDevelopment, "VS Code compiled code cache", app("VS Code")),
		loc(filepath.Join(config, "Code", "CachedExtensionVSIXs"), "VS Code Extension Cache", scanner.CategoryDevelopment, "Downloaded extension packages", app("VS Code")),

		// Applications
		loc(filepath.Join(cache, "spotify"), "Spotify Cache", scanner.CategoryApplication, "Spotify streaming cache", app("Spotify")),
		loc(filepath.Join(cache, "discord"), "Discord Cache", scanner.CategoryApplication, "Discord media cache", app("Discord")),
		loc(filepath.Join(cache, "Slack"), "Slack Cache", scanner.CategoryApplication, "Slack media cache", app("Slack")),
		loc(filepath.Join(cache, "zoom"), "Zoom Cache", scanner.CategoryApplication, "Zoom cache", app("Zoom")),

		// Desktop caches
		loc(filepath.Join(cache, "thumbnails"), "Thumbnails", scanner.CategoryUserCache, "Desktop thumbnail cache"),
		loc(filepath.Join(home, ".thumbnails"), "Legacy Thumbnails", scanner.CategoryUserCache, "Thumbnail cache used by older desktops"),
		loc(filepath.Join(cache, "fontconfig"), "Font Cache", scanner.CategoryUserCache, "Fontconfig cache, rebuilt on demand"),
		loc(filepath.Join(cache, "mesa_shader_cache"), "Mesa Shader Cache", scanner.CategoryUserCache, "Compiled GPU shaders"),

		// Package managers
		loc("/var/cache/apt/archives", "APT Archives", scanner.CategorySystemCache, "Downloaded .deb packages", risk(scanner.RiskModerate), admin(), app("apt")),
		loc("/var/cache/dnf", "DNF Cache", scanner.CategorySystemCache, "DNF metadata and packages", risk(scanner.RiskModerate), admin(), app("dnf")),
		loc("/var/cache/yum", "YUM Cache", scanner.CategorySystemCache, "YUM metadata and packages", risk(scanner.RiskModerate), admin(), app("yum")),
		loc("/var/cache/pacman/pkg", "Pacman Cache", scanner.CategorySystemCache, "Downloaded pacman packages", risk(scanner.RiskModerate), admin(), app("pacman")),
		loc("/var/lib/snapd/cache", "Snap Cache", scanner.CategorySystemCache, "snapd download cache", risk(scanner.RiskModerate), admin(), app("snap")),

		// Logs
		loc(filepath.Join(home, ".xsession-errors"), "X Session Errors", scanner.CategoryLogs, "X11 session error log", whole()),
		loc(filepath.Join(data, "JetBrains"), "JetBrains Data", scanner.CategoryLogs, "JetBrains logs and local history", risk(scanner.RiskModerate), app("JetBrains")),
		loc(filepath.Join(data, "logs"), "User Logs", scanner.CategoryLogs, "Application logs under the data directory"),

		// Trash and downloads
		loc(filepath.Join(data, "Trash", "files"), "Trash Files", scanner.CategoryTrash, "Files moved to the trash"),
		loc(filepath.Join(data, "Trash", "info"), "Trash Info", scanner.CategoryTrash, "Trash metadata"),
		loc(filepath.Join(home, "Downloads"), "Downloads", scanner.CategoryDownloads, "Downloaded files, review before deleting", risk(scanner.RiskCaution)),

		// Sandboxed package data
		loc(filepath.Join(home, "snap"), "Snap Packages", scanner.CategoryContainer, "Per-user snap application data", risk(scanner.RiskCaution)),
		loc(filepath.Join(data, "flatpak"), "Flatpak Data", scanner.CategoryContainer, "Flatpak runtimes and application data", risk(scanner.RiskCaution)),
	}
}

func linuxProtectedPaths(homeDir, configHome, dataHome string) []string {
	return []string{
		"/opt",
		"/run",
		"/srv",
		"/var/lib",
		"/var/db",
		configHome,
		dataHome,
		filepath.Join(homeDir, "Documents"),
		filepath.Join(homeDir, "Desktop"),
		filepath.Join(homeDir, "Pictures"),
		filepath.Join(homeDir, "Music"),
		filepath.Join(homeDir, "Videos"),
		filepath.Join(homeDir, ".ssh"),
		filepath.Join(homeDir, ".gnupg"),
	}
}
