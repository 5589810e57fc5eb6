package util

import (
	"encoding/base64"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```JSON {\"a\":1}```":    `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		if got := StripCodeFences(in); got != want {
			t.Fatalf("StripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	in := "Here is the result:\n```json\n{\"isMenu\":true,\"dishes\":[]}\n```\nEnjoy!"
	want := `{"isMenu":true,"dishes":[]}`
	if got := ExtractJSONObject(in); got != want {
		t.Fatalf("got %q", got)
	}
	if got := ExtractJSONObject("no json here"); got != "no json here" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0x01}
	b64 := base64.StdEncoding.EncodeToString(raw)

	b, mime, err := DecodeBase64MaybeDataURL(MakeDataURL("image/jpeg", b64))
	if err != nil || mime != "image/jpeg" || string(b) != string(raw) {
		t.Fatalf("data url: %v %q %v", b, mime, err)
	}
	b, mime, err = DecodeBase64MaybeDataURL(b64)
	if err != nil || mime != "" || len(b) != 3 {
		t.Fatalf("plain: %v %q %v", b, mime, err)
	}
	if _, _, err := DecodeBase64MaybeDataURL("%%%"); err == nil {
		t.Fatal("expected error")
	}
}

func TestPickMIME(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	if got := PickMIME("", "", png); got != "image/png" {
		t.Fatalf("got %q", got)
	}
	if got := PickMIME("image/webp", "image/png", png); got != "image/webp" {
		t.Fatalf("explicit should win, got %q", got)
	}
	if !IsImageMIME("IMAGE/JPEG") || IsImageMIME("application/pdf") {
		t.Fatal("IsImageMIME mismatch")
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	// "ผัด" is 9 bytes; cutting at 4 must back off to a rune start
	got := Truncate("ผัดไทย", 4)
	if got != "ผ…" {
		t.Fatalf("unexpected %q", got)
	}
}
