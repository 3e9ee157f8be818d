package workflow

import "encoding/base64"

// PreviewEncoder turns file bytes into displayable preview data.
type PreviewEncoder func(mimeType string, data []byte) string

// DataURL encodes data the way a browser FileReader does for readAsDataURL.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
