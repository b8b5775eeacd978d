package classify

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// Image is a decoded photo ready to be handed to a transport.
type Image struct {
	Data []byte
	MIME string
}

// DataURI renders the image back into data:<mime>;base64,<payload> form.
func (i *Image) DataURI() string {
	return "data:" + i.MIME + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Base64 returns the standard base64 payload without the data URI prefix.
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// allowedImageTypes is the set of MIME types accepted for photos.
// net/http.DetectContentType handles JPEG, PNG and GIF by magic bytes. WebP
// is detected separately since the stdlib sniffer has no WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// DetectImageMIME returns the sniffed MIME type and true if data is an
// accepted image format, or ("", false) otherwise.
func DetectImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// DecodeImage accepts either a data URI or a bare base64 payload. The sniffed
// content type wins over the declared one.
func DecodeImage(s string) (*Image, error) {
	data, _, err := decodeBase64MaybeDataURI(s)
	if err != nil {
		return nil, &InputError{Reason: fmt.Sprintf("image is not valid base64: %v", err)}
	}
	if len(data) == 0 {
		return nil, &InputError{Reason: "image is empty"}
	}
	mime, ok := DetectImageMIME(data)
	if !ok {
		return nil, &InputError{Reason: "unsupported image type; use JPEG, PNG, GIF or WebP"}
	}
	return &Image{Data: data, MIME: mime}, nil
}

func decodeBase64MaybeDataURI(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hint string
	if strings.HasPrefix(s, "data:") {
		// data:<mime>;base64,<payload>
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hint = meta[:semi]
			} else {
				hint = meta
			}
			s = s[idx+1:]
		}
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, hint, nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", err
	}
	return b, hint, nil
}
