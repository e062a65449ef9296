package platform

import (
	"path/filepath"

	"github.com/fenilsonani/cachescope/internal/scanner"
)

// windowsRoot is the system drive used for machine-wide locations
var windowsRoot = `C:\`

func windowsCatalog(info *Info) []scanner.Location {
	home := info.HomeDir
	roaming := info.AppData
	local := info.LocalAppData
	win := filepath.Join(windowsRoot, "Windows")

	return []scanner.Location{
		// Temporary files
		loc(filepath.Join(local, "Temp"), "User Temp", scanner.CategorySystemCache, "Per-user temporary files"),
		loc(filepath.Join(win, "Temp"), "System Temp", scanner.CategorySystemCache, "System temporary files", admin()),
		loc(filepath.Join(local, "Microsoft", "Windows", "INetCache"), "Internet Cache", scanner.CategorySystemCache, "WinINet download cache"),
		loc(filepath.Join(local, "Microsoft", "Windows", "Explorer"), "Explorer Cache", scanner.CategorySystemCache, "Thumbnail and icon caches", risk(scanner.RiskModerate)),
		loc(filepath.Join(win, "SoftwareDistribution", "Download"), "Windows Update Cache", scanner.CategorySystemCache, "Downloaded update packages", risk(scanner.RiskModerate), admin()),
		loc(filepath.Join(win, "Prefetch"), "Prefetch", scanner.CategorySystemCache, "Application launch traces", risk(scanner.RiskModerate), admin()),

		// Browser caches
		loc(filepath.Join(local, "Google", "Chrome", "User Data", "Default", "Cache"), "Chrome Cache", scanner.CategoryBrowser, "Google Chrome browser cache", app("Chrome")),
		loc(filepath.Join(local, "Google", "Chrome", "User Data", "Default", "Code Cache"), "Chrome Code Cache", scanner.CategoryBrowser, "Compiled JavaScript cache", app("Chrome")),
		loc(filepath.Join(local, "Google", "Chrome", "User Data", "Default", "Service Worker"), "Chrome Service Workers", scanner.CategoryBrowser, "Chrome service worker storage", whole(), app("Chrome")),
		loc(filepath.Join(local, "Microsoft", "Edge", "User Data", "Default", "Cache"), "Edge Cache", scanner.CategoryBrowser, "Microsoft Edge browser cache", app("Edge")),
		loc(filepath.Join(local, "Microsoft", "Edge", "User Data", "Default", "Code Cache"), "Edge Code Cache", scanner.CategoryBrowser, "Compiled JavaScript cache", app("Edge")),
		loc(filepath.Join(local, "BraveSoftware", "Brave-Browser", "User Data", "Default", "Cache"), "Brave Cache", scanner.CategoryBrowser, "Brave browser cache", app("Brave")),
		loc(filepath.Join(local, "Mozilla", "Firefox", "Profiles"), "Firefox Cache", scanner.CategoryBrowser, "Firefox profile caches", risk(scanner.RiskModerate), app("Firefox")),

		// Developer tools
		loc(filepath.Join(roaming, "npm-cache"), "NPM Cache", scanner.CategoryDevelopment, "npm package cache", app("npm")),
		loc(filepath.Join(local, "pip", "Cache"), "pip Cache", scanner.CategoryDevelopment, "Python pip download cache", app("pip")),
		loc(filepath.Join(local, "Yarn", "Cache"), "Yarn Cache", scanner.CategoryDevelopment, "Yarn package cache", app("Yarn")),
		loc(filepath.Join(local, "pnpm-cache"), "pnpm Cache", scanner.CategoryDevelopment, "pnpm package cache", app("pnpm")),
		loc(filepath.Join(local, "NuGet", "v3-cache"), "NuGet Cache", scanner.CategoryDevelopment, "NuGet HTTP cache", app("NuGet")),
		loc(filepath.Join(local, "go-build"), "Go Build Cache", scanner.CategoryDevelopment, "Go compiler build cache", app("Go")),
		loc(filepath.Join(local, "JetBrains"), "JetBrains Cache", scanner.CategoryDevelopment, "JetBrains IDE caches and indexes", app("JetBrains")),
		loc(filepath.Join(roaming, "Code", "Cache"), "VS Code Cache", scanner.CategoryDevelopment, "VS Code renderer cache", app("VS Code")),
		loc(filepath.Join(roaming, "Code", "CachedData"), "VS Code CachedData", scanner.CategoryDevelopment, "VS Code compiled code cache", app("VS Code")),
		loc(filepath.Join(roaming, "Code", "CachedExtensionVSIXs"), "VS Code Extension Cache", scanner.CategoryDevelopment, "Downloaded extension packages", app("VS Code")),
		loc(filepath.Join(home, ".gradle", "caches"), "Gradle Cache", scanner.CategoryDevelopment, "Gradle dependency and build cache", app("Gradle")),
		loc(filepath.Join(home, ".m2", "repository"), "Maven Repository", scanner.CategoryDevelopment, "Maven local repository, re-downloaded on build", risk(scanner.RiskModerate), app("Maven")),
		loc(filepath.Join(home, ".cargo", "registry", "cache"), "Cargo Registry Cache", scanner.CategoryDevelopment, "Downloaded crate archives", app("Cargo")),
		loc(filepath.Join(home, "go", "pkg", "mod", "cache"), "Go Module Cache", scanner.CategoryDevelopment, "Go module download cache", app("Go")),
		loc(filepath.Join(home, ".docker", "buildx"), "Docker Buildx Cache", scanner.CategoryDevelopment, "Docker buildx builder state", risk(scanner.RiskModerate), app("Docker")),
		loc(filepath.Join(local, "Docker", "wsl"), "Docker WSL Data", scanner.CategoryDevelopment, "Docker Desktop WSL disks, holds images and volumes", risk(scanner.RiskCaution), app("Docker")),
		loc(filepath.Join(home, ".cache", "huggingface"), "HuggingFace Models", scanner.CategoryDevelopment, "Downloaded models and datasets", risk(scanner.RiskModerate), app("HuggingFace")),

		// Applications
		loc(filepath.Join(roaming, "Spotify", "Storage"), "Spotify Cache", scanner.CategoryApplication, "Spotify streaming cache", app("Spotify")),
		loc(filepath.Join(roaming, "discord", "Cache"), "Discord Cache", scanner.CategoryApplication, "Discord media cache", app("Discord")),
		loc(filepath.Join(roaming, "discord", "Code Cache"), "Discord Code Cache", scanner.CategoryApplication, "Discord compiled JavaScript cache", app("Discord")),
		loc(filepath.Join(roaming, "Slack", "Cache"), "Slack Cache", scanner.CategoryApplication, "Slack media cache", app("Slack")),
		loc(filepath.Join(roaming, "Zoom", "data"), "Zoom Cache", scanner.CategoryApplication, "Zoom cache", risk(scanner.RiskModerate), app("Zoom")),
		loc(filepath.Join(local, "Microsoft", "Teams", "Cache"), "Teams Cache", scanner.CategoryApplication, "Microsoft Teams cache", app("Teams")),

		// Logs
		loc(filepath.Join(local, "CrashDumps"), "Crash Dumps", scanner.CategoryLogs, "Application crash dumps"),
		loc(filepath.Join(local, "Microsoft", "Windows", "WER"), "Windows Error Reports", scanner.CategoryLogs, "Windows Error Reporting archives"),

		// Downloads
		loc(filepath.Join(home, "Downloads"), "Downloads", scanner.CategoryDownloads, "Downloaded files, review before deleting", risk(scanner.RiskCaution)),
	}
}

func windowsProtectedPaths(homeDir, appData, localAppData string) []string {
	return []string{
		homeDir,
		appData,
		localAppData,
		filepath.Join(homeDir, "Documents"),
		filepath.Join(homeDir, "Desktop"),
		filepath.Join(homeDir, "Pictures"),
		filepath.Join(homeDir, "Music"),
		filepath.Join(homeDir, "Videos"),
	}
}
