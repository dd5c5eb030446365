package version

// Set at build time via -ldflags "-X ...".
var (
	Name      = "ridelink-backend"
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
