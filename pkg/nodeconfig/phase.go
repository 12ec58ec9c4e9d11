package nodeconfig

// Mode tells whether the session creates a node or edits an existing one.
type Mode string

const (
	ModeCreate    Mode = "create"
	ModeConfigure Mode = "configure"
)

func (m Mode) IsValid() bool {
	return m == ModeCreate || m == ModeConfigure
}

// Phase is the position of a session in the connection → action → schema sequence.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInitializing
	PhaseSelectingConnection
	PhaseLoadingActions
	PhaseSelectingAction
	PhaseLoadingActionSchema
	PhaseReady
	PhaseClosed
)

var phaseNames = map[Phase]string{
	PhaseIdle:                "idle",
	PhaseInitializing:        "initializing",
	PhaseSelectingConnection: "selecting_connection",
	PhaseLoadingActions:      "loading_actions",
	PhaseSelectingAction:     "selecting_action",
	PhaseLoadingActionSchema: "loading_action_schema",
	PhaseReady:               "ready",
	PhaseClosed:              "closed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}

	return "unknown"
}
