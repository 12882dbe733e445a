package record

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// MaxContentLength bounds message content in characters.
	MaxContentLength = 2000

	trackingIDLength = 8
)

var (
	// ErrMalformed is returned when a dequeued payload cannot be decoded.
	ErrMalformed = errors.New("record: malformed payload")

	ErrInvalidUserID    = errors.New("record: user id must be positive")
	ErrInvalidChannelID = errors.New("record: channel id must be positive")
	ErrInvalidContent   = errors.New("record: content must be 1-2000 non-blank characters")
)

// Record is one ingested message. It is immutable once created: the
// tracking ID and creation timestamp are assigned at the ingestion
// boundary and the accumulator never re-validates the fields.
type Record struct {
	TrackingID string    `json:"tracking_id"`
	UserID     int64     `json:"user_id"`
	ChannelID  int64     `json:"channel_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// New validates the origin fields and content, mints a short tracking ID
// and stamps the creation time. Content is stored trimmed.
func New(userID, channelID int64, content string, now time.Time) (Record, error) {
	if userID <= 0 {
		return Record{}, ErrInvalidUserID
	}
	if channelID <= 0 {
		return Record{}, ErrInvalidChannelID
	}

	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > MaxContentLength {
		return Record{}, ErrInvalidContent
	}

	return Record{
		TrackingID: uuid.NewString()[:trackingIDLength],
		UserID:     userID,
		ChannelID:  channelID,
		Content:    content,
		CreatedAt:  now.UTC(),
	}, nil
}

// Encode serializes the record to its queue wire form.
func (r Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Decode parses a queue payload. Undecodable payloads map to ErrMalformed
// so the consumer can drop them without stalling the loop.
func Decode(payload []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(payload, &r); err != nil {
		return Record{}, errors.Wrap(ErrMalformed, err.Error())
	}
	return r, nil
}
