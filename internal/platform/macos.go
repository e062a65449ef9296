package platform

import (
	"path/filepath"

	"github.com/fenilsonani/cachescope/internal/scanner"
)

func macOSCatalog(info *Info) []scanner.Location {
	home := info.HomeDir
	library := filepath.Join(home, "Library")
	caches := info.CacheHome
	support := info.ConfigHome
	logs := filepath.Join(library, "Logs")
	developer := filepath.Join(library, "Developer")
	hidden := filepath.Join(home, ".cache")

	return []scanner.Location{
		// System caches
		loc(filepath.Join(caches, "com.apple.textunderstandingd"), "Apple Text Understanding", scanner.CategorySystemCache, "Text analysis cache"),
		loc(filepath.Join(caches, "SiriTTS"), "Siri TTS", scanner.CategorySystemCache, "Siri text-to-speech voices cache"),
		loc(filepath.Join(caches, "GeoServices"), "GeoServices", scanner.CategorySystemCache, "Maps and location tiles"),
		loc("/Library/Caches", "System Library Caches", scanner.CategorySystemCache, "Caches shared by all users", risk(scanner.RiskModerate), admin()),

		// Browser caches
		loc(filepath.Join(caches, "com.apple.Safari"), "Safari Cache", scanner.CategoryBrowser, "Safari browser cache", app("Safari")),
		loc(filepath.Join(caches, "Google"), "Google/Chrome Cache", scanner.CategoryBrowser, "Google Chrome browser cache", app("Chrome")),
		loc(filepath.Join(caches, "BraveSoftware"), "Brave Browser Cache", scanner.CategoryBrowser, "Brave browser cache", app("Brave")),
		loc(filepath.Join(caches, "Firefox"), "Firefox Cache", scanner.CategoryBrowser, "Mozilla Firefox browser cache", app("Firefox")),
		loc(filepath.Join(caches, "com.microsoft.Edge"), "Microsoft Edge Cache", scanner.CategoryBrowser, "Microsoft Edge browser cache", app("Edge")),
		loc(filepath.Join(support, "Google", "Chrome", "Default", "Service Worker"), "Chrome Service Workers", scanner.CategoryBrowser, "Chrome service worker storage", app("Chrome")),

		// Applications
		loc(filepath.Join(caches, "com.spotify.client"), "Spotify Cache", scanner.CategoryApplication, "Spotify streaming cache", app("Spotify")),
		loc(filepath.Join(caches, "electron"), "Electron Apps Cache", scanner.CategoryApplication, "Shared Electron downloads"),
		loc(filepath.Join(caches, "com.openai.chat"), "ChatGPT Cache", scanner.CategoryApplication, "ChatGPT desktop cache", app("ChatGPT")),
		loc(filepath.Join(caches, "com.hnc.Discord"), "Discord Cache", scanner.CategoryApplication, "Discord media cache", app("Discord")),
		loc(filepath.Join(caches, "com.tinyspeck.slackmacgap"), "Slack Cache", scanner.CategoryApplication, "Slack media cache", app("Slack")),
		loc(filepath.Join(caches, "us.zoom.xos"), "Zoom Cache", scanner.CategoryApplication, "Zoom cache", app("Zoom")),

		// Developer tools
		loc(filepath.Join(caches, "JetBrains"), "JetBrains IDE Cache", scanner.CategoryDevelopment, "JetBrains IDE caches and indexes", app("JetBrains")),
		loc(filepath.Join(caches, "Homebrew"), "Homebrew Cache", scanner.CategoryDevelopment, "Downloaded bottles and sources", app("Homebrew")),
		loc(filepath.Join(caches, "go-build"), "Go Build Cache", scanner.CategoryDevelopment, "Go compiler build cache", app("Go")),
		loc(filepath.Join(caches, "pip"), "pip Cache", scanner.CategoryDevelopment, "Python pip download cache", app("pip")),
		loc(filepath.Join(caches, "yarn"), "Yarn Cache", scanner.CategoryDevelopment, "Yarn package cache", app("Yarn")),
		loc(filepath.Join(caches, "pnpm"), "pnpm Package Cache", scanner.CategoryDevelopment, "pnpm package cache", app("pnpm")),
		loc(filepath.Join(caches, "node-gyp"), "node-gyp Cache", scanner.CategoryDevelopment, "Node native addon headers", app("node-gyp")),
		loc(filepath.Join(caches, "typescript"), "TypeScript Cache", scanner.CategoryDevelopment, "TypeScript type acquisition cache", app("TypeScript")),
		loc(filepath.Join(caches, "ms-playwright-go"), "Playwright Cache", scanner.CategoryDevelopment, "Browsers downloaded by Playwright", app("Playwright")),
		loc(filepath.Join(caches, "CocoaPods"), "CocoaPods Cache", scanner.CategoryDevelopment, "CocoaPods spec and pod cache", app("CocoaPods")),
		loc(filepath.Join(caches, "org.carthage.CarthageKit"), "Carthage Cache", scanner.CategoryDevelopment, "Carthage dependency cache", app("Carthage")),
		loc(filepath.Join(hidden, "huggingface"), "HuggingFace Models", scanner.CategoryDevelopment, "Downloaded models and datasets", risk(scanner.RiskModerate), app("HuggingFace")),
		loc(filepath.Join(hidden, "puppeteer"), "Puppeteer Browsers", scanner.CategoryDevelopment, "Browsers downloaded by Puppeteer", app("Puppeteer")),
		loc(filepath.Join(hidden, "pre-commit"), "pre-commit Cache", scanner.CategoryDevelopment, "pre-commit hook environments", app("pre-commit")),
		loc(filepath.Join(hidden, "uv"), "uv Cache", scanner.CategoryDevelopment, "Python uv package cache", app("uv")),
		loc(filepath.Join(home, ".npm", "_cacache"), "NPM Cache", scanner.CategoryDevelopment, "npm content-addressable cache", app("npm")),
		loc(filepath.Join(home, ".yarn", "cache"), "Yarn Berry Cache", scanner.CategoryDevelopment, "Yarn 2+ offline cache", app("Yarn")),
		loc(filepath.Join(home, ".gradle", "caches"), "Gradle Cache", scanner.CategoryDevelopment, "Gradle dependency and build cache", app("Gradle")),
		loc(filepath.Join(home, ".m2", "repository"), "Maven Repository", scanner.CategoryDevelopment, "Maven local repository, re-downloaded on build", risk(scanner.RiskModerate), app("Maven")),
		loc(filepath.Join(home, ".cargo", "registry", "cache"), "Cargo Registry Cache", scanner.CategoryDevelopment, "Downloaded crate archives", app("Cargo")),
		loc(filepath.Join(home, "go", "pkg", "mod", "cache"), "Go Module Cache", scanner.CategoryDevelopment, "Go module download cache", app("Go")),
		loc(filepath.Join(home, ".docker", "buildx"), "Docker Buildx Cache", scanner.CategoryDevelopment, "Docker buildx builder state", risk(scanner.RiskModerate), app("Docker")),
		loc(filepath.Join(support, "Code", "Cache"), "VS Code Cache", scanner.CategoryDevelopment, "VS Code renderer cache", app("VS Code")),
		loc(filepath.Join(support, "Code", "CachedData"), "VS Code CachedData", scanner.CategoryDevelopment, "VS Code compiled code cache", app("VS Code")),
		loc(filepath.Join(support, "Code", "CachedExtensionVSIXs"), "VS Code Extension Cache", scanner.CategoryDevelopment, "Downloaded extension packages", app("VS Code")),
		loc(filepath.Join(support, "Cursor", "Cache"), "Cursor Cache", scanner.CategoryDevelopment, "Cursor renderer cache", app("Cursor")),
		loc(filepath.Join(support, "Cursor", "CachedData"), "Cursor CachedData", scanner.CategoryDevelopment, "Cursor compiled code cache", app("Cursor")),
		loc(filepath.Join(developer, "Xcode", "DerivedData"), "Xcode DerivedData", scanner.CategoryDevelopment, "Xcode intermediate build products", app("Xcode")),
		loc(filepath.Join(developer, "Xcode", "Archives"), "Xcode Archives", scanner.CategoryDevelopment, "Archived app builds, needed to symbolicate crashes", risk(scanner.RiskModerate), app("Xcode")),
		loc(filepath.Join(developer, "CoreSimulator", "Caches"), "iOS Simulator Cache", scanner.CategoryDevelopment, "Simulator dyld and runtime caches", app("Xcode")),

		// Logs
		loc(filepath.Join(logs, "DiagnosticReports"), "Diagnostic Reports", scanner.CategoryLogs, "Crash and hang reports"),
		loc(filepath.Join(logs, "JetBrains"), "JetBrains Logs", scanner.CategoryLogs, "JetBrains IDE logs", app("JetBrains")),
		loc(filepath.Join(logs, "Homebrew"), "Homebrew Logs", scanner.CategoryLogs, "Homebrew build logs", app("Homebrew")),

		// Trash and downloads
		loc(filepath.Join(home, ".Trash"), "Trash", scanner.CategoryTrash, "Files moved to the trash"),
		loc(filepath.Join(home, "Downloads"), "Downloads", scanner.CategoryDownloads, "Downloaded files, review before deleting", risk(scanner.RiskCaution)),

		// Sandboxed apps
		loc(filepath.Join(library, "Containers"), "Container Apps", scanner.CategoryContainer, "Sandboxed application data", risk(scanner.RiskCaution)),
	}
}

func macOSProtectedPaths(homeDir string) []string {
	return []string{
		"/private/etc",
		"/private/var/db",
		filepath.Join(homeDir, "Library"),
		filepath.Join(homeDir, "Library", "Application Support"),
		filepath.Join(homeDir, "Library", "Preferences"),
		filepath.Join(homeDir, "Library", "Caches"),
		filepath.Join(homeDir, "Documents"),
		filepath.Join(homeDir, "Desktop"),
		filepath.Join(homeDir, "Pictures"),
		filepath.Join(homeDir, "Music"),
		filepath.Join(homeDir, "Movies"),
		filepath.Join(homeDir, ".ssh"),
	}
}
