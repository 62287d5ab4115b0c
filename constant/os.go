package constant

// GOOS values the player spawner cares about.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)
