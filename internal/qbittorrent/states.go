package qbittorrent

// finishedStates are the client-reported states meaning a torrent has
// finished downloading and is idle, seeding, or paused. Error, missing-file,
// moving, and in-progress states are deliberately absent.
var finishedStates = map[string]struct{}{
	"uploading":  {},
	"stalledUP":  {},
	"pausedUP":   {},
	"stoppedUP":  {},
	"queuedUP":   {},
	"forcedUP":   {},
	"checkingUP": {},
}

// IsFinishedState reports whether a torrent state string counts as complete
// for archiving purposes.
func IsFinishedState(state string) bool {
	_, ok := finishedStates[state]
	return ok
}
