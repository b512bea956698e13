package auth

import (
	"encoding/base64"
	"errors"
	"net/url"

	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"
)

var ErrPairingDisabled = errors.New("pairing is disabled")

// Pairing checks the shared code a new device must present. Only the bcrypt
// hash is kept in memory.
type Pairing struct {
	hash []byte
	code string
}

func NewPairing(code string) (*Pairing, error) {
	if code == "" {
		return &Pairing{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Pairing{hash: hash, code: code}, nil
}

func (p *Pairing) Enabled() bool { return len(p.hash) > 0 }

func (p *Pairing) Verify(code string) error {
	if !p.Enabled() {
		return ErrPairingDisabled
	}
	return bcrypt.CompareHashAndPassword(p.hash, []byte(code))
}

// Link is the deep link a second device scans to pair with serverURL.
func (p *Pairing) Link(serverURL string) (string, error) {
	if !p.Enabled() {
		return "", ErrPairingDisabled
	}
	values := url.Values{}
	values.Set("server", serverURL)
	values.Set("code", p.code)
	return "voicejournal://pair?" + values.Encode(), nil
}

// QRDataURL renders payload as a PNG data URL.
func QRDataURL(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, 280)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
