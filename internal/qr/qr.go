// Package qr renders login QR payloads for the shells.
package qr

import (
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// pngSize is the edge length in pixels of DataURL images.
const pngSize = 256

// DataURL encodes payload as a PNG and returns it as a data: URL suitable
// for an <img> tag.
func DataURL(payload string) (string, error) {
	if payload == "" {
		return "", fmt.Errorf("empty qr payload")
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, pngSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Terminal renders payload with Unicode half blocks so two bitmap rows fit
// one text line. indent is prepended to each line.
func Terminal(payload, indent string) (string, error) {
	code, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}

	bitmap := code.Bitmap()
	var sb strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		sb.WriteString(indent)
		for x := range bitmap[y] {
			top := bitmap[y][x]
			bottom := y+1 < len(bitmap) && bitmap[y+1][x]
			sb.WriteRune(halfBlock(top, bottom))
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func halfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	default:
		return ' '
	}
}
