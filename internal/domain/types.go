package domain

import "strings"

// SessionState models the capture and recognition lifecycle.
type SessionState string

const (
	SessionStateIdle                 SessionState = "idle"
	SessionStateRequestingPermission SessionState = "requesting_permission"
	SessionStateRecording            SessionState = "recording"
	SessionStateStopping             SessionState = "stopping"
	SessionStateProcessing           SessionState = "processing"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonReady              SessionStateReason = "ready"
	SessionReasonAwaitingPermission SessionStateReason = "awaiting_permission"
	SessionReasonPermissionDenied   SessionStateReason = "permission_denied"
	SessionReasonRecordingStarted   SessionStateReason = "recording_started"
	SessionReasonCaptureUnavailable SessionStateReason = "capture_unavailable"
	SessionReasonWindowElapsed      SessionStateReason = "capture_window_elapsed"
	SessionReasonRecognizing        SessionStateReason = "recognizing"
	SessionReasonAssetUnavailable   SessionStateReason = "asset_unavailable"
	SessionReasonMatchFound         SessionStateReason = "match_found"
	SessionReasonNoMatch            SessionStateReason = "no_match"
	SessionReasonRecognitionFailed  SessionStateReason = "recognition_failed"
	SessionReasonCancelled          SessionStateReason = "cancelled"
)

// ErrorCode identifies the user-facing failure kinds.
type ErrorCode string

const (
	ErrorCodeStartup            ErrorCode = "startup"
	ErrorCodePermissionDenied   ErrorCode = "permission_denied"
	ErrorCodeCaptureUnavailable ErrorCode = "capture_unavailable"
	ErrorCodeAssetUnavailable   ErrorCode = "asset_unavailable"
	ErrorCodeTransport          ErrorCode = "transport"
	ErrorCodeNoMatch            ErrorCode = "no_match"
)

// Platform is a music service a match can be opened in.
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformYouTube Platform = "youtube"
	PlatformDeezer  Platform = "deezer"
)

// Platforms lists the supported platforms in display order.
var Platforms = []Platform{PlatformSpotify, PlatformDeezer, PlatformYouTube}

// ParsePlatform resolves a case-insensitive platform name.
func ParsePlatform(name string) (Platform, bool) {
	switch Platform(strings.ToLower(strings.TrimSpace(name))) {
	case PlatformSpotify:
		return PlatformSpotify, true
	case PlatformYouTube:
		return PlatformYouTube, true
	case PlatformDeezer:
		return PlatformDeezer, true
	default:
		return "", false
	}
}

// AudioAsset is a finalized recording handed to the recognizer.
type AudioAsset struct {
	Location string `json:"location"`
	MimeType string `json:"mimeType"`
	// Temporary assets are removed by the recognizer once submitted.
	Temporary bool `json:"temporary"`
}

// MatchRecord is a recognized track. Empty identifiers mean the track is not
// linkable on that platform.
type MatchRecord struct {
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	SpotifyTrackID string `json:"spotifyTrackId,omitempty"`
	DeezerTrackID  string `json:"deezerTrackId,omitempty"`
	YouTubeVideoID string `json:"youtubeVideoId,omitempty"`
}

// ExternalID returns the identifier of the record on a platform.
func (r MatchRecord) ExternalID(platform Platform) (string, bool) {
	var id string
	switch platform {
	case PlatformSpotify:
		id = r.SpotifyTrackID
	case PlatformDeezer:
		id = r.DeezerTrackID
	case PlatformYouTube:
		id = r.YouTubeVideoID
	}
	id = strings.TrimSpace(id)
	return id, id != ""
}

// OutcomeKind tags a RecognitionOutcome.
type OutcomeKind string

const (
	OutcomeMatched        OutcomeKind = "matched"
	OutcomeNoMatch        OutcomeKind = "no_match"
	OutcomeTransportError OutcomeKind = "transport_error"
)

// RecognitionOutcome is the result of one submission.
type RecognitionOutcome struct {
	Kind  OutcomeKind
	Match *MatchRecord
	Err   error
}

func Matched(record *MatchRecord) RecognitionOutcome {
	return RecognitionOutcome{Kind: OutcomeMatched, Match: record}
}

func NoMatch() RecognitionOutcome {
	return RecognitionOutcome{Kind: OutcomeNoMatch}
}

func TransportFailure(err error) RecognitionOutcome {
	return RecognitionOutcome{Kind: OutcomeTransportError, Err: err}
}

// PresentationState is what the result sheet renders.
type PresentationState struct {
	Visible bool         `json:"visible"`
	Current *MatchRecord `json:"current"`
}

// Status summarizes the current runtime status.
type Status struct {
	State     SessionState `json:"state"`
	Active    bool         `json:"active"`
	SessionID string       `json:"sessionId,omitempty"`
	Message   string       `json:"message,omitempty"`
}
