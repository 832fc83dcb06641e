// Package pagetoken provides opaque, restartable page tokens for keyset
// pagination over the transaction log.
package pagetoken

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cursor marks the last row of the previous page. History is ordered by
// (transaction_date, id) descending, so the next page starts strictly below
// this pair.
type Cursor struct {
	Date time.Time `json:"d"`
	ID   uuid.UUID `json:"i"`
}

// Encode serialises a cursor into an opaque URL-safe token.
func Encode(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses a token produced by Encode. An empty token yields a nil
// cursor (first page).
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decoding page token: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing page token: %w", err)
	}
	if c.ID == uuid.Nil {
		return nil, fmt.Errorf("parsing page token: missing id")
	}
	return &c, nil
}
