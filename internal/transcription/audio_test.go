package transcription

import "testing"

func TestValidateAudioFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"voice-note.ogg", true},
		{"memo.mp3", true},
		{"recording.WAV", true},
		{"note.m4a", true},
		{"clip.webm", true},
		{"document.pdf", false},
		{"archive.zip", false},
		{"noextension", false},
		{"", false},
	}
	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			if got := ValidateAudioFormat(tc.filename); got != tc.want {
				t.Errorf("ValidateAudioFormat(%q) = %v, want %v", tc.filename, got, tc.want)
			}
		})
	}
}
