// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdf extracts a JPEG of the first page of a scanned PDF.
// Scanner apps embed each page as a single full-page image XObject;
// rather than rasterizing, the page's image stream is pulled out of
// the document directly. DCT-encoded streams are returned as-is;
// Flate-encoded 8-bit gray/RGB streams are re-encoded to JPEG. Pages
// without such an image (vector content, exotic encodings, predictor
// filters) are not convertible.
package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ConversionError reports that no page image could be extracted.
type ConversionError struct {
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdf conversion: %s: %v", e.Reason, e.Err)
	}
	return "pdf conversion: " + e.Reason
}

func (e *ConversionError) Unwrap() error { return e.Err }

// RenderFirstPage returns the first page of the PDF as JPEG bytes.
func RenderFirstPage(pdf []byte) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, &ConversionError{Reason: "empty PDF content"}
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, &ConversionError{Reason: "reading PDF", Err: err}
	}
	if ctx.PageCount == 0 {
		return nil, &ConversionError{Reason: "PDF has no pages"}
	}

	for _, objNr := range pdfcpu.ImageObjNrs(ctx, 1) {
		entry := ctx.Table[objNr]
		if entry == nil || entry.Free {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if jpeg := jpegStream(sd); jpeg != nil {
			return jpeg, nil
		}
		if jpeg := flateJPEG(sd); jpeg != nil {
			return jpeg, nil
		}
	}

	return nil, &ConversionError{Reason: "no extractable image on first page"}
}

func isImageStream(sd types.StreamDict) bool {
	subtype, found := sd.Find("Subtype")
	if !found {
		return false
	}
	name, ok := subtype.(types.Name)
	return ok && name == "Image"
}

// jpegStream returns the raw stream bytes when sd is a DCT-encoded
// image XObject; DCTDecode streams are JPEG files as-is.
func jpegStream(sd types.StreamDict) []byte {
	if !isImageStream(sd) {
		return nil
	}
	fp := sd.FilterPipeline
	if len(fp) == 0 || fp[len(fp)-1].Name != "DCTDecode" {
		return nil
	}
	if len(sd.Raw) == 0 {
		return nil
	}
	return sd.Raw
}

// flateJPEG re-encodes a Flate-compressed 8-bit DeviceGray or
// DeviceRGB image XObject as JPEG. Predictor filters and other color
// spaces yield nil; the stream must hold plain row-major samples.
func flateJPEG(sd types.StreamDict) []byte {
	if !isImageStream(sd) {
		return nil
	}
	fp := sd.FilterPipeline
	if len(fp) != 1 || fp[0].Name != "FlateDecode" || predictorUsed(fp[0].DecodeParms) {
		return nil
	}
	if len(sd.Raw) == 0 {
		return nil
	}

	width := intEntry(sd.Dict, "Width")
	height := intEntry(sd.Dict, "Height")
	if width <= 0 || height <= 0 {
		return nil
	}
	if intEntry(sd.Dict, "BitsPerComponent") != 8 {
		return nil
	}
	comps := colorComponents(sd.Dict)
	if comps == 0 {
		return nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(sd.Raw))
	if err != nil {
		return nil
	}
	samples, err := io.ReadAll(zr)
	zr.Close()
	if err != nil || len(samples) < width*height*comps {
		return nil
	}

	var img image.Image
	if comps == 1 {
		gray := image.NewGray(image.Rect(0, 0, width, height))
		copy(gray.Pix, samples[:width*height])
		img = gray
	} else {
		rgba := image.NewRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < width*height; i++ {
			rgba.Pix[4*i] = samples[3*i]
			rgba.Pix[4*i+1] = samples[3*i+1]
			rgba.Pix[4*i+2] = samples[3*i+2]
			rgba.Pix[4*i+3] = 0xFF
		}
		img = rgba
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil
	}
	return buf.Bytes()
}

func predictorUsed(parms types.Dict) bool {
	if parms == nil {
		return false
	}
	obj, found := parms.Find("Predictor")
	if !found {
		return false
	}
	p, ok := obj.(types.Integer)
	return ok && int(p) > 1
}

func intEntry(d types.Dict, key string) int {
	obj, found := d.Find(key)
	if !found {
		return 0
	}
	i, ok := obj.(types.Integer)
	if !ok {
		return 0
	}
	return int(i)
}

func colorComponents(d types.Dict) int {
	obj, found := d.Find("ColorSpace")
	if !found {
		return 0
	}
	name, ok := obj.(types.Name)
	if !ok {
		return 0
	}
	switch name {
	case "DeviceGray":
		return 1
	case "DeviceRGB":
		return 3
	}
	return 0
}
