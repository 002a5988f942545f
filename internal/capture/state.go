package capture

// State is a step of the capture state machine.
type State string

const (
	StateIdle             State = "idle"
	StatePermissionCheck  State = "permission_check"
	StateSourceDiscovery  State = "source_discovery"
	StateImageAcquisition State = "image_acquisition"
	StateCrop             State = "crop"
	StatePersist          State = "persist"
	StateDone             State = "done"
	StateAborted          State = "aborted"
)

// Terminal reports whether s ends a capture.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}
