package version

// Version is the wrapper's own version. Overridden at build time with
// -ldflags "-X github.com/gosdccc/gosdccc/pkg/version.Version=v1.2.3".
var Version = "dev"
