package assign

// PushEvent is a single queued fire-and-forget client event.
type PushEvent struct {
	Name    string
	Payload any
}

// Reply is the single pending reply for the inbound event currently being
// handled. At most one may be pending per render cycle.
type Reply struct {
	Payload map[string]any
}

// Scratch is reset to empty at the end of every render cycle; the flash
// assign itself persists across cycles because it is part of the
// document.
type Scratch struct {
	Events []PushEvent
	Reply  *Reply
	Flash  map[string]any // keys written to flash *this* cycle
}

// PushEventTo appends a named push-event to the scratch, in insertion order.
func PushEventTo(s *Socket, name string, payload any) {
	s.Scratch.Events = append(s.Scratch.Events, PushEvent{Name: name, Payload: payload})
}

// PutReply stores the single pending reply for this cycle, overwriting any
// prior reply set during the same cycle.
func PutReply(s *Socket, payload map[string]any) {
	s.Scratch.Reply = &Reply{Payload: payload}
}

// GetReply returns the pending reply, if any.
func GetReply(s *Socket) *Reply {
	return s.Scratch.Reply
}

// GetEvents returns the queued push-events recorded since the last reset.
func GetEvents(s *Socket) []PushEvent {
	return s.Scratch.Events
}

// GetFlash returns the flash delta written since the last reset.
func GetFlash(s *Socket) map[string]any {
	return s.Scratch.Flash
}

const flashAssignKey = "flash"

// PutFlash writes key/msg to both the :flash assign (so it diffs into the
// document) and the scratch flash delta.
func PutFlash(s *Socket, key, msg string) {
	flash, _ := s.Assigns[flashAssignKey].(map[string]any)
	if flash == nil {
		flash = map[string]any{}
	} else {
		// copy-on-write: the previous flash map is left unmodified
		cp := make(map[string]any, len(flash))
		for k, v := range flash {
			cp[k] = v
		}
		flash = cp
	}
	flash[key] = msg
	s.Assigns[flashAssignKey] = flash
	s.Changed[flashAssignKey] = true

	if s.Scratch.Flash == nil {
		s.Scratch.Flash = map[string]any{}
	}
	s.Scratch.Flash[key] = msg
}

// ClearFlash removes all flash entries from both the assign and the
// scratch delta.
func ClearFlash(s *Socket) {
	s.Assigns[flashAssignKey] = map[string]any{}
	s.Changed[flashAssignKey] = true
	s.Scratch.Flash = map[string]any{}
}

// ClearFlashKey removes a single flash entry from both the assign and the
// scratch delta.
func ClearFlashKey(s *Socket, key string) {
	flash, _ := s.Assigns[flashAssignKey].(map[string]any)
	if flash == nil {
		return
	}
	cp := make(map[string]any, len(flash))
	for k, v := range flash {
		if k != key {
			cp[k] = v
		}
	}
	s.Assigns[flashAssignKey] = cp
	s.Changed[flashAssignKey] = true
	delete(s.Scratch.Flash, key)
}

// ResetScratch clears the per-cycle scratch after a render flush. Assigns
// and the flash assign persist; only the scratch bookkeeping is reset.
func ResetScratch(s *Socket) {
	s.Scratch = Scratch{}
}
