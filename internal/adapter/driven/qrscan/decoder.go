// Package qrscan reads QR codes from uploaded images.
package qrscan

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BarcodeDecoder = (*Decoder)(nil)

// Decoder implements driven.BarcodeDecoder with gozxing.
type Decoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewDecoder creates a Decoder that tries hard on every image.
func NewDecoder() *Decoder {
	return &Decoder{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode returns the text of the first QR code found in data. Light-on-dark
// codes are handled by retrying on an inverted view of the image.
func (d *Decoder) Decode(ctx context.Context, data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: decode image: %v", driven.ErrNoBarcode, err)
	}

	for _, candidate := range []image.Image{img, inverted{img}} {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := d.decodeImage(candidate)
		if err == nil {
			return text, nil
		}
	}

	return "", driven.ErrNoBarcode
}

func (d *Decoder) decodeImage(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", err
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		return "", err
	}
	return result.GetText(), nil
}

// inverted presents img with every colour channel inverted. Channels are
// alpha-premultiplied, so each one is inverted against alpha rather than
// full scale.
type inverted struct {
	image.Image
}

func (i inverted) ColorModel() color.Model {
	return color.RGBAModel
}

func (i inverted) At(x, y int) color.Color {
	r, g, b, a := i.Image.At(x, y).RGBA()
	return color.RGBA64{
		R: uint16(a - r),
		G: uint16(a - g),
		B: uint16(a - b),
		A: uint16(a),
	}
}
