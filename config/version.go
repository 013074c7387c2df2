package config

// 构建时通过 -ldflags 注入
var (
	Version    string = "dev"
	CommitHash string = ""
)

// IsProduction 生产构建：Version 为 "release" 且带有 CommitHash
func IsProduction() bool {
	return Version == "release" && CommitHash != ""
}

// IsDevelopment 开发构建
func IsDevelopment() bool {
	return Version == "dev"
}
