package emit

// NullEmitter discards every update. Useful as the default sink when a
// caller does not supply one, so the engine never has to nil-check.
type NullEmitter struct{}

func (NullEmitter) Emit(Update) {}
