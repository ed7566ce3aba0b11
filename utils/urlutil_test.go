package utils

import (
	"strings"
	"testing"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr error
	}{
		{
			name: "Already canonical",
			url:  "https://example.com/path",
			want: "https://example.com/path",
		},
		{
			name: "Missing scheme defaults to https",
			url:  "example.com/page",
			want: "https://example.com/page",
		},
		{
			name: "Surrounding whitespace trimmed",
			url:  "  https://example.com  ",
			want: "https://example.com",
		},
		{
			name: "Uppercase scheme normalized",
			url:  "HTTP://example.com",
			want: "http://example.com",
		},
		{
			name:    "Empty input",
			url:     "",
			wantErr: ErrEmptyURL,
		},
		{
			name:    "Whitespace only",
			url:     "   ",
			wantErr: ErrEmptyURL,
		},
		{
			name:    "Too long",
			url:     "https://example.com/" + strings.Repeat("a", 2100),
			wantErr: ErrURLTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeURL(tt.url)
			if err != tt.wantErr {
				t.Errorf("SanitizeURL() error = %v, want %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && got != tt.want {
				t.Errorf("SanitizeURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateURL_Development(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{
			name: "Valid HTTP URL",
			url:  "http://example.com",
		},
		{
			name: "Valid HTTPS URL",
			url:  "https://www.example.com/path?query=value",
		},
		{
			name: "Localhost allowed outside production",
			url:  "http://localhost:8080",
		},
		{
			name: "Private IP allowed outside production",
			url:  "http://192.168.1.1",
		},
		{
			name:    "Empty URL",
			url:     "",
			wantErr: ErrEmptyURL,
		},
		{
			name:    "Invalid URL format",
			url:     "not a url",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "Invalid scheme - FTP",
			url:     "ftp://example.com",
			wantErr: ErrInvalidScheme,
		},
		{
			name:    "Invalid scheme - JavaScript",
			url:     "javascript:alert('xss')",
			wantErr: ErrInvalidScheme,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateURL(tt.url, false); err != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL_Production(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{
			name: "Public host",
			url:  "https://github.com/user/repo?tab=readme",
		},
		{
			name:    "Localhost - hostname",
			url:     "http://localhost:8080",
			wantErr: ErrLocalhostNotAllowed,
		},
		{
			name:    "Localhost - 127.0.0.1",
			url:     "http://127.0.0.1",
			wantErr: ErrLocalhostNotAllowed,
		},
		{
			name:    "Localhost - IPv6 loopback",
			url:     "http://[::1]",
			wantErr: ErrLocalhostNotAllowed,
		},
		{
			name:    "Private IP - 10.x.x.x",
			url:     "http://10.0.0.1",
			wantErr: ErrPrivateIPNotAllowed,
		},
		{
			name:    "Private IP - 192.168.x.x",
			url:     "http://192.168.1.1",
			wantErr: ErrPrivateIPNotAllowed,
		},
		{
			name:    "Private IP - 172.16-31.x.x",
			url:     "http://172.16.0.1",
			wantErr: ErrPrivateIPNotAllowed,
		},
		{
			name:    "Link-local IP",
			url:     "http://169.254.1.1",
			wantErr: ErrPrivateIPNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateURL(tt.url, true); err != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"Plain host", "https://example.com/path", "example.com"},
		{"Host with port", "http://example.com:8080", "example.com"},
		{"Unparseable", "://broken", "unknown"},
		{"No host", "/relative/path", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDomain(tt.url); got != tt.want {
				t.Errorf("ExtractDomain() = %q, want %q", got, tt.want)
			}
		})
	}
}
