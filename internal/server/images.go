package server

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"math/rand"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/MarkusShepherd/diris-server/internal/db"
)

// decodeImageData strips an optional data-URL prefix and base64-decodes
// the payload.
func decodeImageData(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, errors.New("no image data")
	}
	parts := strings.SplitN(data, ",", 2)
	if len(parts) == 2 {
		data = parts[1]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

// imageDimensions reads just the header of the encoded image. A payload
// that no registered decoder recognizes is rejected.
func imageDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func validateCopyright(value string) (string, error) {
	if value == "" {
		return db.CopyrightOwner, nil
	}
	switch value {
	case db.CopyrightOwner, db.CopyrightRestricted, db.CopyrightDiris, db.CopyrightPublic:
		return value, nil
	}
	return "", errors.New("unknown copyright value")
}

func imagePubliclyAvailable(image *Image) bool {
	return image.Copyright == db.CopyrightDiris || image.Copyright == db.CopyrightPublic
}

// randomImageOrder draws the image's shuffle key. Zero is reserved for
// rows that never received one.
func randomImageOrder() int32 {
	for {
		if v := rand.Int31(); v != 0 {
			return v
		}
	}
}
