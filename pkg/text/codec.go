// Package text provides the encoders and decoders used to escape characters
// that are reserved by the name and path string syntax.
package text

import (
	"net/url"
	"strings"
)

// Encoder escapes text.
type Encoder interface {
	Encode(s string) string
}

// Decoder reverses an Encoder.
type Decoder interface {
	Decode(s string) string
}

// Codec is both an Encoder and a Decoder.
type Codec interface {
	Encoder
	Decoder
}

// EncoderFunc adapts a function to an Encoder.
type EncoderFunc func(string) string

func (f EncoderFunc) Encode(s string) string { return f(s) }

type noOp struct{}

func (noOp) Encode(s string) string { return s }
func (noOp) Decode(s string) string { return s }

// NoOp leaves text untouched.
var NoOp Codec = noOp{}

// Jsr283 maps the characters that are illegal in JCR names ('*', '/', ':',
// '[', ']' and '|') onto the Unicode private use area, and back.
var Jsr283 Codec = jsr283{
	enc: strings.NewReplacer(
		"*", "\uf02a",
		"/", "\uf02f",
		":", "\uf03a",
		"[", "\uf05b",
		"]", "\uf05d",
		"|", "\uf07c",
	),
	dec: strings.NewReplacer(
		"\uf02a", "*",
		"\uf02f", "/",
		"\uf03a", ":",
		"\uf05b", "[",
		"\uf05d", "]",
		"\uf07c", "|",
	),
}

type jsr283 struct {
	enc *strings.Replacer
	dec *strings.Replacer
}

func (j jsr283) Encode(s string) string { return j.enc.Replace(s) }
func (j jsr283) Decode(s string) string { return j.dec.Replace(s) }

// URL percent-escapes text the way URL path segments are escaped.
var URL Codec = urlCodec{}

type urlCodec struct{}

func (urlCodec) Encode(s string) string { return url.PathEscape(s) }

func (urlCodec) Decode(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// Default is the codec used for names and paths when none is supplied.
var Default = Jsr283

// OrDefaultEncoder returns enc, or Default when enc is nil.
func OrDefaultEncoder(enc Encoder) Encoder {
	if enc == nil {
		return Default
	}
	return enc
}

// OrDefaultDecoder returns dec, or Default when dec is nil.
func OrDefaultDecoder(dec Decoder) Decoder {
	if dec == nil {
		return Default
	}
	return dec
}
