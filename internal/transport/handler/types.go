package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LinkRequest is the body of POST /api/links.
type LinkRequest struct {
	Filename string `json:"filename" validate:"required,max=1024"`
	Size     Size   `json:"size"`     // target width, "800" when empty
	FileType string `json:"fileType"` // content type the upload must use
}

// Size accepts either a JSON string or a number and keeps its text form, since
// it travels as object metadata.
type Size string

func (s *Size) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Size(v)
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*s = Size(n)
	default:
		return fmt.Errorf("size must be a string or a number, got %s", b)
	}
	return nil
}

type NotificationAccepted struct {
	ID string `json:"id"`
}
