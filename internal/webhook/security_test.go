package webhook

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestValidateSignature(t *testing.T) {
	body := []byte(`{"type":"ping","id":"1"}`)
	v := NewSecurityValidator(SecurityConfig{Secret: "s3cret"})

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"valid", SignatureHeaderValue("s3cret", body), nil},
		{"missing", "", ErrMissingSignature},
		{"no prefix", "deadbeef", ErrMissingSignature},
		{"sha1 prefix", "sha1=deadbeef", ErrMissingSignature},
		{"bad hex", "sha256=zz", ErrMissingSignature},
		{"short digest", "sha256=abcd", ErrMissingSignature},
		{"wrong secret", SignatureHeaderValue("other", body), ErrInvalidSignature},
		{"tampered body", SignatureHeaderValue("s3cret", append(body, ' ')), ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateSignature(body, tt.header)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateSignature() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateSignature() error = %v, want %v", err, tt.wantErr)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error %T is not a *ValidationError", err)
			}
		})
	}
}

func TestValidateSignature_NoSecret(t *testing.T) {
	v := NewSecurityValidator(SecurityConfig{})
	err := v.ValidateSignature([]byte("{}"), SignatureHeaderValue("", []byte("{}")))
	if !errors.Is(err, ErrSecretNotConfigured) {
		t.Fatalf("ValidateSignature() error = %v, want ErrSecretNotConfigured", err)
	}
}

func TestValidateIPAddress(t *testing.T) {
	v := NewSecurityValidator(SecurityConfig{AllowedIPs: []string{"10.0.0.5", "192.168.1.0/24", "not-a-cidr/99"}})

	tests := []struct {
		name    string
		remote  string
		xff     string
		allowed bool
	}{
		{"exact", "10.0.0.5:1234", "", true},
		{"cidr", "192.168.1.77:80", "", true},
		{"forwarded", "127.0.0.1:80", "192.168.1.3, 10.9.9.9", true},
		{"denied", "172.16.0.1:80", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/webhook/circleci", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			err := v.ValidateIPAddress(req)
			if tt.allowed && err != nil {
				t.Errorf("ValidateIPAddress() error = %v", err)
			}
			if !tt.allowed && err == nil {
				t.Error("ValidateIPAddress() expected error")
			}
		})
	}

	open := NewSecurityValidator(SecurityConfig{})
	req := httptest.NewRequest("POST", "/", nil)
	if err := open.ValidateIPAddress(req); err != nil {
		t.Errorf("empty allow-list should accept everything, got %v", err)
	}
}

func TestCheckRateLimit(t *testing.T) {
	// 10/min gives a burst of 1 and a refill far slower than the test.
	v := NewSecurityValidator(SecurityConfig{RateLimitPerMin: 10})

	if err := v.CheckRateLimit("1.2.3.4"); err != nil {
		t.Fatalf("first request should pass, got %v", err)
	}
	if err := v.CheckRateLimit("1.2.3.4"); err == nil {
		t.Error("second immediate request should be limited")
	}
	if err := v.CheckRateLimit("5.6.7.8"); err != nil {
		t.Errorf("other sources have their own bucket, got %v", err)
	}

	disabled := NewSecurityValidator(SecurityConfig{})
	for i := 0; i < 100; i++ {
		if err := disabled.CheckRateLimit("k"); err != nil {
			t.Fatalf("disabled limiter rejected request %d: %v", i, err)
		}
	}
}
