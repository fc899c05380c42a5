package types

import (
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MessageTypeEmailNotification is the only message type the mail worker
// currently understands.
const MessageTypeEmailNotification = "email_notification"

// Recipients is the destination list of an email notification. The wire
// format is historical: a single recipient is serialized as a bare JSON
// string, multiple recipients as an array of strings. Both shapes are
// accepted on decode.
type Recipients []string

// MarshalJSON serializes a single recipient as a string and anything else
// as an array, preserving the envelope contract consumed by the mail worker.
func (r Recipients) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	return json.Marshal([]string(r))
}

// UnmarshalJSON accepts either a bare string or an array of strings.
func (r *Recipients) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = Recipients{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*r = Recipients(many)
	return nil
}

// EmailAttachments is the attachment descriptor of an email notification:
// a single JSON object, never an array. The mail worker reads name_file and
// s3_name; further artifacts travel as extension-suffixed keys (name_file_pdf,
// s3_name_pdf) that the worker's open envelope schema tolerates and may
// ignore. The message never carries the file bytes.
type EmailAttachments map[string]string

// NewEmailAttachments builds the wire descriptor from uploaded artifacts in
// order. The first artifact takes the canonical name_file/s3_name keys;
// subsequent artifacts get keys suffixed with their file extension.
func NewEmailAttachments(artifacts []RenderedArtifact) EmailAttachments {
	if len(artifacts) == 0 {
		return nil
	}
	att := make(EmailAttachments, len(artifacts)*2)
	for i, a := range artifacts {
		nameKey, storageKey := "name_file", "s3_name"
		if i > 0 {
			suffix := strings.TrimPrefix(filepath.Ext(a.FileName), ".")
			if suffix == "" {
				suffix = strconv.Itoa(i)
			}
			nameKey += "_" + suffix
			storageKey += "_" + suffix
		}
		att[nameKey] = a.FileName
		att[storageKey] = a.StorageKey
	}
	return att
}

// EmailPayload is the data section of an email notification message.
type EmailPayload struct {
	UserID      string           `json:"userId"`
	Recipients  Recipients       `json:"recipients"`
	Subject     string           `json:"subject"`
	HTML        string           `json:"html"`
	Text        string           `json:"text,omitempty"`
	Attachments EmailAttachments `json:"attachments,omitempty"`
}

// QueueMessage is the JSON envelope published to the broker. It is immutable
// once dispatched to the main queue; only the retry path enriches a copy
// with retry bookkeeping, and only final-DLQ routing stamps FailedAt and
// FinalFailure.
type QueueMessage struct {
	Type      string       `json:"type"`
	Data      EmailPayload `json:"data"`
	Timestamp string       `json:"timestamp,omitempty"`

	// Retry bookkeeping, absent on first publish.
	RetryCount    int        `json:"retryCount,omitempty"`
	OriginalQueue string     `json:"originalQueue,omitempty"`
	FailedAt      *time.Time `json:"failedAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
	FinalFailure  bool       `json:"finalFailure,omitempty"`
}

// NewEmailMessage builds a first-publish envelope with the timestamp set to
// the current UTC instant in RFC 3339 format.
func NewEmailMessage(payload EmailPayload) *QueueMessage {
	return &QueueMessage{
		Type:      MessageTypeEmailNotification,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
