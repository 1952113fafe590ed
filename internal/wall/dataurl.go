package wall

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// MaxImageBytes caps inline image attachments. Images are shipped to the
// backend as data URLs, so oversized files would bloat every fetch of the
// feed window.
const MaxImageBytes = 5 * 1024 * 1024

// EncodeImageFile reads an image from disk and returns it as a
// data:<mime>;base64,<payload> string suitable for the post image column.
func EncodeImageFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("image path is a directory: %s", path)
	}
	if info.Size() > MaxImageBytes {
		return "", fmt.Errorf("image exceeds %d bytes: %d", MaxImageBytes, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image file is empty: %s", path)
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("not an image file (%s): %s", mime, path)
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURL returns the raw bytes of a data-URL image payload.
func DecodeDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil, fmt.Errorf("not a data URL")
	}
	comma := strings.IndexByte(dataURL, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URL: missing payload")
	}
	meta := dataURL[len("data:"):comma]
	payload := dataURL[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("unsupported data URL encoding: %s", meta)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URL payload: %w", err)
	}
	return raw, nil
}
