package email

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Attachment is a single binary part to include in a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ContentTypeForFilename infers the MIME type of an attachment from its
// filename extension, defaulting to image/jpeg (payment proofs are photos).
func ContentTypeForFilename(filename string) string {
	if strings.HasSuffix(strings.ToLower(filename), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}

// BuildMessage constructs a complete raw email message including headers.
// Without an attachment the result is a plain text/plain message; with one it
// becomes multipart/mixed with the attachment base64-encoded.
func BuildMessage(from, to, subject, body string, att *Attachment) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")

	if att == nil {
		sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		sb.WriteString("\r\n") // End of headers
		sb.WriteString(body)
		sb.WriteString("\r\n")
		return []byte(sb.String())
	}

	boundary := "----=_ApnaRoom_Part_Boundary"
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", boundary))
	sb.WriteString("\r\n")

	// Text part
	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	sb.WriteString("\r\n")

	// Attachment part, base64 in 76-char lines per RFC 2045.
	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", att.ContentType, att.Filename))
	sb.WriteString("Content-Transfer-Encoding: base64\r\n")
	sb.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", att.Filename))
	sb.WriteString("\r\n")
	encoded := base64.StdEncoding.EncodeToString(att.Data)
	for len(encoded) > 76 {
		sb.WriteString(encoded[:76])
		sb.WriteString("\r\n")
		encoded = encoded[76:]
	}
	sb.WriteString(encoded)
	sb.WriteString("\r\n")

	sb.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return []byte(sb.String())
}
