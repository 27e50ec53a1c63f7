package body

import "testing"

func TestSniffText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"object", `{"a":1}`, "application/json"},
		{"array", `[1,2,3]`, "application/json"},
		{"leading whitespace object", "  \n\t{\"a\":1}", "application/json"},
		{"bare number", "42", "application/json"},
		{"bare negative float", "-3.14", "application/json"},
		{"bare string", `"hi"`, "application/json"},
		{"bare true", "true", "application/json"},
		{"bare null", "null", "application/json"},
		{"doctype", "<!DOCTYPE html><html></html>", "text/html"},
		{"html tag", "<html><body/></html>", "text/html"},
		{"xml", `<?xml version="1.0"?><root/>`, "application/xml"},
		{"plain", "just some words", "text/plain"},
		{"empty", "", "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sniff([]byte(tt.in))
			if got.MIME != tt.want {
				t.Errorf("Sniff(%q).MIME = %q, want %q", tt.in, got.MIME, tt.want)
			}
		})
	}
}

func TestSniffBinary(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0}, "image/png"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0}, "image/jpeg"},
		{"gif", []byte("GIF89a"), "image/gif"},
		{"pdf", []byte("%PDF-1.4\n..."), "application/pdf"},
		{"unknown binary", []byte{0x00, 0x01, 0x02, 0x03}, "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sniff(tt.in)
			if got.MIME != tt.want {
				t.Errorf("Sniff(%v).MIME = %q, want %q", tt.in, got.MIME, tt.want)
			}
		})
	}
}

func TestSniffTextSetsUTF8Encoding(t *testing.T) {
	got := Sniff([]byte("plain text"))
	if got.Encoding != "utf-8" {
		t.Errorf("Encoding = %q, want utf-8", got.Encoding)
	}
}

func TestSniffBinaryLeavesEncodingEmpty(t *testing.T) {
	got := Sniff([]byte{0x00, 0x01})
	if got.Encoding != "" {
		t.Errorf("Encoding = %q, want empty for binary", got.Encoding)
	}
}
