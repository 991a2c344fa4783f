package lib

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
	"github.com/yeqown/go-qrcode"
)

// QRAssetName turns a ticket code into a file or object name.
func QRAssetName(ticketCode string) string {
	return slug.Make(ticketCode) + ".jpeg"
}

// RenderQRFile encodes text as a QR image and writes it to dir/name.
func RenderQRFile(dir, name, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	qrc, err := qrcode.New(text)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, name)
	if err := qrc.Save(p); err != nil {
		log.Printf("Could not save qrcode to file [%s]: %s\n", p, err.Error())
		return "", err
	}
	return p, nil
}

// LocalQRStore keeps rendered QR images on local disk.
type LocalQRStore struct {
	Dir string
}

func (l *LocalQRStore) Render(_ context.Context, ticketCode, token string) (string, error) {
	if l.Dir == "" {
		return "", fmt.Errorf("qr asset directory is not configured")
	}
	return RenderQRFile(l.Dir, QRAssetName(ticketCode), token)
}
