package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Encoding names the character set of an import file
type Encoding string

const (
	// EncodingAuto picks UTF-8 when the bytes are valid UTF-8 and GBK otherwise
	EncodingAuto Encoding = "auto"
	EncodingUTF8 Encoding = "utf-8"
	EncodingGBK  Encoding = "gbk"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseEncoding validates an --encoding flag value
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "gbk", "gb2312", "cp936":
		return EncodingGBK, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q (must be auto, utf-8 or gbk)", name)
	}
}

// decode converts raw file bytes to UTF-8 and reports which encoding was used
func decode(raw []byte, enc Encoding) ([]byte, Encoding, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		if enc == EncodingGBK {
			return nil, "", fmt.Errorf("file starts with a UTF-8 byte order mark but gbk was requested")
		}
		return raw[len(utf8BOM):], EncodingUTF8, nil
	}

	if enc == EncodingAuto {
		if utf8.Valid(raw) {
			enc = EncodingUTF8
		} else {
			enc = EncodingGBK
		}
	}

	switch enc {
	case EncodingUTF8:
		if !utf8.Valid(raw) {
			return nil, "", fmt.Errorf("file is not valid utf-8")
		}
		return raw, EncodingUTF8, nil
	case EncodingGBK:
		out, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode gbk: %w", err)
		}
		return out, EncodingGBK, nil
	default:
		return nil, "", fmt.Errorf("unsupported encoding %q", enc)
	}
}
