package version

// Value is overridden at build time with -ldflags "-X replay/internal/version.Value=...".
var Value = "dev"
