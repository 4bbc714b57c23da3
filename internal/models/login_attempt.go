package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Keys used in submitted payloads and in the persisted JSON log
const (
	FieldUsername  = "username"
	FieldPassword  = "password"
	FieldUserAgent = "userAgent"
	FieldPlatform  = "platform"
	FieldLanguage  = "language"
	FieldReferrer  = "referrer"
	FieldURL       = "url"
	FieldTimestamp = "timestamp"

	FieldClientIP        = "client_ip"
	FieldServerTimestamp = "server_timestamp"
	FieldHeaders         = "headers"
	FieldCaptureID       = "capture_id"
)

// ServerTimestampLayout is fixed width so lexical order matches chronological order
const ServerTimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatServerTimestamp renders t in the layout used for server_timestamp
func FormatServerTimestamp(t time.Time) string {
	return t.UTC().Format(ServerTimestampLayout)
}

// LoginAttempt represents a single captured submission to the decoy login form.
//
// Client fields are advisory and may be absent. Server fields are assigned by the
// capture service after decoding and always overwrite anything the client sent.
// Extra carries every other key verbatim, including known keys whose value was
// not a JSON string, so nothing the client submitted is lost.
type LoginAttempt struct {
	Username  *string
	Password  *string
	UserAgent *string
	Platform  *string
	Language  *string
	Referrer  *string
	URL       *string
	Timestamp *string

	ClientIP        string
	ServerTimestamp string
	Headers         map[string]string
	CaptureID       string

	Extra map[string]json.RawMessage
}

type clientField struct {
	name  string
	value **string
}

// clientFields lists the client-supplied string fields in persisted order
func (a *LoginAttempt) clientFields() []clientField {
	return []clientField{
		{FieldUsername, &a.Username},
		{FieldPassword, &a.Password},
		{FieldUserAgent, &a.UserAgent},
		{FieldPlatform, &a.Platform},
		{FieldLanguage, &a.Language},
		{FieldReferrer, &a.Referrer},
		{FieldURL, &a.URL},
		{FieldTimestamp, &a.Timestamp},
	}
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// ApplyServerFields overwrites the server-owned fields, discarding any
// conflicting client-supplied values
func (a *LoginAttempt) ApplyServerFields(clientIP, serverTimestamp, captureID string, headers map[string]string) {
	a.ClientIP = clientIP
	a.ServerTimestamp = serverTimestamp
	a.CaptureID = captureID
	a.Headers = headers

	for _, key := range []string{FieldClientIP, FieldServerTimestamp, FieldCaptureID, FieldHeaders} {
		delete(a.Extra, key)
	}
}

// Field returns the display value of a top-level key and whether it is present.
// Non-string values kept in Extra are returned as their JSON text; null counts as absent.
func (a *LoginAttempt) Field(name string) (string, bool) {
	for _, f := range a.clientFields() {
		if f.name == name && *f.value != nil {
			return **f.value, true
		}
	}

	switch name {
	case FieldClientIP:
		if a.ClientIP != "" {
			return a.ClientIP, true
		}
	case FieldServerTimestamp:
		if a.ServerTimestamp != "" {
			return a.ServerTimestamp, true
		}
	case FieldCaptureID:
		if a.CaptureID != "" {
			return a.CaptureID, true
		}
	}

	raw, ok := a.Extra[name]
	if !ok {
		return "", false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	if s, ok := decodeString(trimmed); ok {
		return s, true
	}
	return string(trimmed), true
}

// FieldOr returns the display value of name, or fallback when absent
func (a *LoginAttempt) FieldOr(name, fallback string) string {
	if value, ok := a.Field(name); ok {
		return value
	}
	return fallback
}

// ExtraKeys returns the keys of Extra in sorted order
func (a *LoginAttempt) ExtraKeys() []string {
	keys := make([]string, 0, len(a.Extra))
	for key := range a.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalJSON decodes a JSON object, routing unknown or non-string keys into Extra
func (a *LoginAttempt) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("%w: expected a JSON object", ErrBadRequest)
	}

	*a = LoginAttempt{}
	for key, value := range raw {
		if a.assign(key, value) {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[key] = value
	}
	return nil
}

func (a *LoginAttempt) assign(key string, value json.RawMessage) bool {
	switch key {
	case FieldClientIP:
		s, ok := decodeString(value)
		a.ClientIP = s
		return ok
	case FieldServerTimestamp:
		s, ok := decodeString(value)
		a.ServerTimestamp = s
		return ok
	case FieldCaptureID:
		s, ok := decodeString(value)
		a.CaptureID = s
		return ok
	case FieldHeaders:
		var headers map[string]string
		if err := json.Unmarshal(value, &headers); err != nil || headers == nil {
			return false
		}
		a.Headers = headers
		return true
	}

	for _, f := range a.clientFields() {
		if f.name != key {
			continue
		}
		s, ok := decodeString(value)
		if !ok {
			return false
		}
		*f.value = &s
		return true
	}
	return false
}

// MarshalJSON writes client fields, then server fields, then extra keys sorted.
// HTML characters are not escaped and non-ASCII text is kept as UTF-8.
func (a LoginAttempt) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(key string, value any) error {
		encodedKey, err := encodeJSON(key)
		if err != nil {
			return err
		}
		var encodedValue []byte
		if raw, ok := value.(json.RawMessage); ok {
			encodedValue = raw
		} else if encodedValue, err = encodeJSON(value); err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
		return nil
	}

	for _, f := range a.clientFields() {
		if *f.value == nil {
			continue
		}
		if err := write(f.name, **f.value); err != nil {
			return nil, err
		}
	}

	if a.ClientIP != "" {
		if err := write(FieldClientIP, a.ClientIP); err != nil {
			return nil, err
		}
	}
	if a.ServerTimestamp != "" {
		if err := write(FieldServerTimestamp, a.ServerTimestamp); err != nil {
			return nil, err
		}
	}
	if a.Headers != nil {
		if err := write(FieldHeaders, a.Headers); err != nil {
			return nil, err
		}
	}
	if a.CaptureID != "" {
		if err := write(FieldCaptureID, a.CaptureID); err != nil {
			return nil, err
		}
	}

	for _, key := range a.ExtraKeys() {
		raw := a.Extra[key]
		if !json.Valid(raw) {
			return nil, fmt.Errorf("invalid raw value for %s", key)
		}
		if err := write(key, raw); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeString(value json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

func encodeJSON(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
