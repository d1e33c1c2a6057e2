package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"
)

// Envelope holds the addressing headers of a message.
type Envelope struct {
	From      string
	To        []string
	Subject   string
	Date      time.Time
	MessageID string
}

// InlineImage is an image part referenced from the HTML by Content-ID.
type InlineImage struct {
	Filename  string
	ContentID string
	Data      []byte
}

// Compose builds a multipart/related message with the HTML body first and the
// inline image second.
func Compose(env Envelope, html []byte, img InlineImage) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	var msg bytes.Buffer
	writeHeader(&msg, "From", sanitizeHeader(env.From))
	writeHeader(&msg, "To", sanitizeHeader(strings.Join(env.To, ", ")))
	writeHeader(&msg, "Subject", mime.QEncoding.Encode("utf-8", sanitizeHeader(env.Subject)))
	writeHeader(&msg, "Date", env.Date.Format(time.RFC1123Z))
	writeHeader(&msg, "Message-ID", "<"+env.MessageID+">")
	writeHeader(&msg, "MIME-Version", "1.0")
	writeHeader(&msg, "Content-Type", fmt.Sprintf("multipart/related; type=\"text/html\"; boundary=%q", writer.Boundary()))
	msg.WriteString("\r\n")

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=utf-8")
	htmlHeader.Set("Content-Transfer-Encoding", "quoted-printable")
	htmlPart, err := writer.CreatePart(htmlHeader)
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(htmlPart)
	if _, err := qp.Write(html); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	imgHeader := textproto.MIMEHeader{}
	imgHeader.Set("Content-Type", fmt.Sprintf("image/png; name=%q", img.Filename))
	imgHeader.Set("Content-Transfer-Encoding", "base64")
	imgHeader.Set("Content-ID", "<"+img.ContentID+">")
	imgHeader.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", img.Filename))
	imgPart, err := writer.CreatePart(imgHeader)
	if err != nil {
		return nil, err
	}

	encoded := base64.StdEncoding.EncodeToString(img.Data)
	// Write in 76-character lines per RFC 2045
	for i := 0; i < len(encoded); i += 76 {
		end := min(i+76, len(encoded))
		if _, err := imgPart.Write([]byte(encoded[i:end] + "\r\n")); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

// sanitizeHeader strips line breaks so values cannot inject headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
