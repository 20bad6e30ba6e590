// Package transcribing runs the transcription stage: it hands a
// discovered video to the external transcriber collaborator and
// persists the resulting transcript.
package transcribing
