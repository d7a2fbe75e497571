// Package media generates the optional image and audio companions to the
// narrative report. Both generators absorb their own failures: a media
// outage degrades the run, it never aborts it.
package media

// Outcome is the explicit result of an optional media generation step.
// When Present is false, Reason says why the artifact is absent.
type Outcome struct {
	Present bool
	Data    []byte
	MIME    string
	Reason  string
}

// Absent builds an outcome for a skipped or failed generation.
func Absent(reason string) Outcome {
	return Outcome{Present: false, Reason: reason}
}

// Generated builds an outcome carrying artifact bytes.
func Generated(data []byte, mime string) Outcome {
	return Outcome{Present: true, Data: data, MIME: mime}
}
