package certificate

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// QRSize is the edge length of generated QR images in pixels.
const QRSize = 300

var ErrQRGeneration = errors.New("failed to generate QR code")

// GenerateQRDataURL encodes url as a PNG QR code at the highest error
// correction level and returns it as a data URL usable in an <img> src.
func GenerateQRDataURL(url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: empty content", ErrQRGeneration)
	}
	png, err := qrcode.Encode(url, qrcode.Highest, QRSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrQRGeneration, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// VerificationURL is the link a QR code on a certificate points to.
func VerificationURL(frontendURL, segment, code string) string {
	return fmt.Sprintf("%s/verify/%s/%s", frontendURL, segment, code)
}
