package sammi

const (
	// DefaultPort is the port the SAMMI API listens on out of the box.
	DefaultPort = 9450

	minPort = 1
	maxPort = 65535
)

// ValidPort reports whether port is a usable TCP port.
func ValidPort(port int) bool {
	return port >= minPort && port <= maxPort
}

// normalizePort falls back to DefaultPort for anything ValidPort rejects.
func normalizePort(port int) int {
	if ValidPort(port) {
		return port
	}
	return DefaultPort
}
