// internal/sender/gmail/mime.go
package gmail

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
)

// BuildMIME assembles a multipart/alternative message with a single HTML
// part, the shape the transactional send endpoint expects in its raw
// field.
func BuildMIME(from, to, subject, htmlBody string) []byte {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", w.Boundary())

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Type", "text/html; charset=UTF-8")
	part, _ := w.CreatePart(hdr)
	fmt.Fprint(part, htmlBody)
	w.Close()

	return buf.Bytes()
}
