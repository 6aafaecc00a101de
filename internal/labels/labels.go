// Package labels renders equipment QR codes and Code128 barcodes as PNG.
package labels

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"

	"lab-inventory/internal/model"
)

const (
	QRSize        = 256
	BarcodeWidth  = 400
	BarcodeHeight = 120
)

// Summary 為 QR code 內容：設備的主要欄位，每行一項
func Summary(e model.Equipment) string {
	lines := []string{
		"Name: " + e.Name,
		"Brand: " + e.Category,
	}
	if e.Model != nil {
		lines = append(lines, "Model: "+*e.Model)
	}
	lines = append(lines,
		"Lab: "+e.Lab,
		"Serial: "+e.SerialNumber,
	)
	if e.FIUID != nil {
		lines = append(lines, "FIU ID: "+*e.FIUID)
	}
	lines = append(lines, "Status: "+e.Status)
	return strings.Join(lines, "\n")
}

// QRCode 產生設備摘要的 QR code PNG
func QRCode(e model.Equipment, size int) ([]byte, error) {
	if size <= 0 {
		size = QRSize
	}
	code, err := qr.Encode(Summary(e), qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return scaleAndEncode(code, size, size)
}

// Barcode 以 Code128 編碼序號
func Barcode(serial string, width, height int) ([]byte, error) {
	if width <= 0 {
		width = BarcodeWidth
	}
	if height <= 0 {
		height = BarcodeHeight
	}
	code, err := code128.Encode(serial)
	if err != nil {
		return nil, fmt.Errorf("encode code128: %w", err)
	}
	// Code128 的模組數可能超過要求寬度
	if b := code.Bounds(); b.Dx() > width {
		width = b.Dx()
	}
	return scaleAndEncode(code, width, height)
}

func scaleAndEncode(code barcode.Barcode, width, height int) ([]byte, error) {
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	return buf.Bytes(), nil
}
