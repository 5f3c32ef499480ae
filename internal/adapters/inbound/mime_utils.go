package inbound

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
)

// RoleResolver decides the sender role of mail that arrives without one
type RoleResolver interface {
	RoleOf(from string) core.SenderRole
}

// messageContent is what we keep from a MIME tree
type messageContent struct {
	plain       bytes.Buffer
	html        bytes.Buffer
	attachments []string
}

// ParseMessage builds an Email from a raw RFC 5322 message. envelopeFrom is used
// when the message has no usable From header.
func ParseMessage(raw []byte, envelopeFrom string, roles RoleResolver) (*core.Email, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	content := &messageContent{}
	if err := walkPart(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), "", msg.Body, content); err != nil {
		return nil, fmt.Errorf("failed to extract text content: %w", err)
	}

	body := strings.TrimSpace(content.plain.String())
	if body == "" && content.html.Len() > 0 {
		body = strings.Join(strings.Fields(utils.StripHTML(content.html.String())), " ")
	}

	sender := utils.ExtractAddress(msg.Header.Get("From"))
	if sender == "" {
		sender = utils.ExtractAddress(envelopeFrom)
	}

	messageID := firstMessageID(msg.Header.Get("Message-ID"))
	email := &core.Email{
		ID:          messageID,
		Sender:      sender,
		Subject:     decodeEncodedHeader(msg.Header.Get("Subject")),
		Body:        body,
		Date:        msg.Header.Get("Date"),
		Attachments: content.attachments,
		ThreadID:    threadID(msg.Header, messageID),
		Role:        core.RoleCustomer,
	}
	if email.ID == "" {
		email.ID = uuid.NewString()
	}
	if roles != nil {
		email.Role = roles.RoleOf(sender)
	}
	return email, nil
}

// threadID picks the thread root: the first References id, then In-Reply-To,
// then the message's own id.
func threadID(h mail.Header, messageID string) string {
	if id := firstMessageID(h.Get("References")); id != "" {
		return id
	}
	if id := firstMessageID(h.Get("In-Reply-To")); id != "" {
		return id
	}
	return messageID
}

// firstMessageID returns the first <id> of a header value without brackets
func firstMessageID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if start := strings.Index(value, "<"); start >= 0 {
		if end := strings.Index(value[start:], ">"); end > 0 {
			return strings.TrimSpace(value[start+1 : start+end])
		}
	}
	return strings.Fields(value)[0]
}

// decodeEncodedHeader decodes RFC 2047 encoded words, returning the input on failure
func decodeEncodedHeader(value string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// walkPart collects text bodies and attachment names, descending into nested multiparts
func walkPart(contentType, encoding, disposition string, r io.Reader, content *messageContent) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// No or broken Content-Type, treat as plain text
		mediaType = "text/plain"
		params = map[string]string{}
	}

	if name := attachmentName(disposition, params); name != "" {
		content.attachments = append(content.attachments, name)
		return nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary, ok := params["boundary"]
		if !ok {
			return readText(mediaType, encoding, r, content)
		}
		mr := multipart.NewReader(r, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				// Keep what we have so far
				if content.plain.Len() > 0 || content.html.Len() > 0 {
					return nil
				}
				return err
			}
			if err := walkPart(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"),
				part.Header.Get("Content-Disposition"), part, content); err != nil {
				return err
			}
		}
	}

	return readText(mediaType, encoding, r, content)
}

func readText(mediaType, encoding string, r io.Reader, content *messageContent) error {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}

	switch mediaType {
	case "text/plain":
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		if content.plain.Len() > 0 {
			content.plain.WriteString("\n")
		}
		content.plain.Write(data)
	case "text/html":
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		content.html.Write(data)
		content.html.WriteString(" ")
	}
	// Skip other parts
	return nil
}

func attachmentName(disposition string, params map[string]string) string {
	if disposition != "" {
		kind, dparams, err := mime.ParseMediaType(disposition)
		if err == nil {
			if name := dparams["filename"]; name != "" {
				return decodeEncodedHeader(name)
			}
			if kind == "attachment" {
				if name := params["name"]; name != "" {
					return decodeEncodedHeader(name)
				}
			}
		}
	}
	if name := params["name"]; name != "" && disposition == "" {
		return decodeEncodedHeader(name)
	}
	return ""
}
