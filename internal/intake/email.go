// Package intake converts inbound email into validation requests for the
// mailwarden daemon. Emails piped through Postfix/sendmail are parsed,
// checked against a sender allowlist and rate limit, and written as
// request JSON files into the daemon inbox.
package intake

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/mail"
	"strings"
)

// Email holds the extracted fields of a raw inbound message.
type Email struct {
	From    string
	Subject string
	Body    string
}

// ParseEmail extracts sender, subject, and plain-text body from a raw
// email. Multipart and HTML messages are rejected — only plain text is
// accepted as a request carrier.
func ParseEmail(raw []byte) (*Email, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse email: %w", err)
	}

	from := msg.Header.Get("From")
	if from == "" {
		return nil, fmt.Errorf("email missing From header")
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid From address: %w", err)
	}

	if contentType := msg.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if strings.HasPrefix(mediaType, "multipart/") {
				return nil, fmt.Errorf("multipart emails are not supported")
			}
			if mediaType == "text/html" {
				return nil, fmt.Errorf("HTML emails are not supported")
			}
		}
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Email{
		From:    addr.Address,
		Subject: msg.Header.Get("Subject"),
		Body:    strings.TrimSpace(stripSignature(string(body))),
	}, nil
}

// stripSignature removes everything after the standard "-- \n" delimiter
// so signatures never leak into request payloads.
func stripSignature(body string) string {
	if idx := strings.Index(body, "\n-- \n"); idx >= 0 {
		return body[:idx]
	}
	return body
}
