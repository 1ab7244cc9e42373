package plugin

// Name identifies the organiser on the pipe channel and in command contexts.
const Name = "tmux-tabdir"

// Permission is a capability requested from the host.
type Permission int

const (
	ReadApplicationState Permission = iota
	ChangeApplicationState
	RunCommands
)

func (p Permission) String() string {
	switch p {
	case ReadApplicationState:
		return "read-application-state"
	case ChangeApplicationState:
		return "change-application-state"
	case RunCommands:
		return "run-commands"
	default:
		return "unknown"
	}
}

// PermissionStatus moves from Unknown to Granted or Denied once.
type PermissionStatus int

const (
	PermissionUnknown PermissionStatus = iota
	PermissionGranted
	PermissionDenied
)

func (s PermissionStatus) String() string {
	switch s {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Host is the multiplexer side of the organiser. Calls must not block; any
// outcome is delivered later as an Event.
type Host interface {
	RequestPermission(perms ...Permission)
	Subscribe(kinds ...EventKind)
	RenameTab(ordinal uint32, name string)
	RunCommand(argv []string, env map[string]string, dir string, context map[string]string)
}
