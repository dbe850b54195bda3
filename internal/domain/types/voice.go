package types

// VoiceState mirrors the state reported by the external voice engine.
type VoiceState string

const (
	VoiceReady       VoiceState = "ready"
	VoiceCallStarted VoiceState = "call_started"
	VoiceRinging     VoiceState = "ringing"
	VoiceConnected   VoiceState = "connected"
	VoiceHungUp      VoiceState = "hung_up"
	VoiceError       VoiceState = "error"
)

// Direction says who placed a call.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)
