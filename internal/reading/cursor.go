package reading

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidCursor is returned for cursors that were not produced by EncodeCursor.
var ErrInvalidCursor = errors.New("invalid cursor")

// CursorData is the position after the last reading of a page, newest first.
type CursorData struct {
	AfterID   string    `json:"after_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// EncodeCursor encodes cursor data to a base64 string
func EncodeCursor(data CursorData) string {
	if data.AfterID == "" {
		return ""
	}
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(jsonBytes)
}

// DecodeCursor decodes a base64 cursor string to CursorData
func DecodeCursor(cursor string) (CursorData, error) {
	if cursor == "" {
		return CursorData{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return CursorData{}, ErrInvalidCursor
	}

	var data CursorData
	if err := json.Unmarshal(decoded, &data); err != nil || data.AfterID == "" {
		return CursorData{}, ErrInvalidCursor
	}
	return data, nil
}
