package interfaces

// Host is the explicit event/callback surface the interpreter drives. It
// replaces the generic pub/sub the original system used for flag/activeId/
// debugMessage, per spec.md §9's re-architecture pointer.
type Host interface {
	// Flag fires a breakpoint: the host may inspect the page and must
	// eventually call resume to let the main loop continue. Withholding
	// resume pauses the interpreter indefinitely.
	Flag(page Driver, resume func())

	// ActiveID reports the id of the pair about to fire, for breakpoint
	// UIs that want to highlight it.
	ActiveID(id string)

	// DebugMessage carries a diagnostic line. Only called when debug mode
	// is enabled.
	DebugMessage(text string)

	// Serializable delivers one scraped record, or one scraped list, as
	// data suitable for JSON encoding.
	Serializable(data any)

	// Binary delivers a binary artifact (currently: screenshots) with its
	// MIME type.
	Binary(data []byte, mimeType string)
}

// NoopHost implements Host with no-ops except resuming immediately at any
// Flag, so a caller that supplies no host still gets a runnable interpreter.
type NoopHost struct {
	// Warn is called once per no-op callback invocation, if set, so a
	// caller embedding NoopHost can still surface spec.md §6's "callbacks
	// default to no-op with a warning log" requirement.
	Warn func(callback string)
}

var _ Host = NoopHost{}

func (h NoopHost) warn(name string) {
	if h.Warn != nil {
		h.Warn(name)
	}
}

func (h NoopHost) Flag(_ Driver, resume func()) {
	h.warn("flag")
	if resume != nil {
		resume()
	}
}

func (h NoopHost) ActiveID(string)      { h.warn("activeId") }
func (h NoopHost) DebugMessage(string)  { h.warn("debugMessage") }
func (h NoopHost) Serializable(any)     { h.warn("serializableCallback") }
func (h NoopHost) Binary([]byte, string) { h.warn("binaryCallback") }
