// Package qrimage renders session tokens as scannable QR images. Pure
// functions of the payload; nothing here touches core state.
package qrimage

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// PNG renders the payload as a size×size QR code PNG.
func PNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}

// DataURL renders the payload as a PNG data URL suitable for direct
// embedding in an <img> tag.
func DataURL(payload string, size int) (string, error) {
	png, err := PNG(payload, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
