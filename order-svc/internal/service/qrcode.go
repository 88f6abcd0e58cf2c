package service

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

type QRGenerator interface {
	Generate(handshakeRequestID string) ([]byte, error)
}

// PairingQRGenerator encodes the respond endpoint for a handshake request so
// a restaurant device can answer by scanning instead of typing the id.
type PairingQRGenerator struct {
	BaseURL string
}

func (g PairingQRGenerator) Generate(handshakeRequestID string) ([]byte, error) {
	qrData := fmt.Sprintf("%s/api/handshakes/%s/respond", g.BaseURL, handshakeRequestID)
	return qrcode.Encode(qrData, qrcode.Medium, 256)
}
