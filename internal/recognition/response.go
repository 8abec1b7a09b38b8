package recognition

import (
	"bytes"
	"encoding/json"
	"strings"

	"tunespot/internal/domain"
)

type recognizeResponse struct {
	Status *struct {
		Msg  string `json:"msg"`
		Code int    `json:"code"`
	} `json:"status"`
	Metadata *struct {
		Music []musicEntry `json:"music"`
	} `json:"metadata"`
}

type musicEntry struct {
	Title   string `json:"title"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	ExternalMetadata struct {
		Spotify *struct {
			Track struct {
				ID flexID `json:"id"`
			} `json:"track"`
		} `json:"spotify"`
		Deezer *struct {
			Track struct {
				ID flexID `json:"id"`
			} `json:"track"`
		} `json:"deezer"`
		YouTube *struct {
			Vid flexID `json:"vid"`
		} `json:"youtube"`
	} `json:"external_metadata"`
}

func (m musicEntry) record() *domain.MatchRecord {
	record := &domain.MatchRecord{Title: strings.TrimSpace(m.Title)}
	if len(m.Artists) > 0 {
		record.Artist = strings.TrimSpace(m.Artists[0].Name)
	}
	ext := m.ExternalMetadata
	if ext.Spotify != nil {
		record.SpotifyTrackID = string(ext.Spotify.Track.ID)
	}
	if ext.Deezer != nil {
		record.DeezerTrackID = string(ext.Deezer.Track.ID)
	}
	if ext.YouTube != nil {
		record.YouTubeVideoID = string(ext.YouTube.Vid)
	}
	return record
}

// flexID accepts identifiers encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// Not linkable rather than not decodable.
		*f = ""
		return nil
	}
	*f = flexID(n.String())
	return nil
}
