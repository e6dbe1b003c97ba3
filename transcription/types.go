package transcription

// Request describes one audio file to transcribe.
type Request struct {
	AudioPath string `json:"audio_path"`
	// Filename is the name the client uploaded, kept for backends that
	// detect the container from its extension.
	Filename string `json:"filename,omitempty"`
	Language string `json:"language,omitempty"`
	// Model overrides the configured model for this call only.
	Model string `json:"model,omitempty"`
}

// Response is what a backend returned for a Request.
type Response struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	// Duration of the audio in seconds, when the backend reports it.
	Duration float64 `json:"duration,omitempty"`
	Language string  `json:"language,omitempty"`
}

// Segment is one timed piece of speech. Start and End are seconds from the
// beginning of the audio.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
