package smtp

import (
	"errors"
	"testing"
)

func TestIsLocalDevSMTPHost(t *testing.T) {
	cases := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"mailpit", true},
		{"smtp.example.com", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isLocalDevSMTPHost(tc.host); got != tc.want {
			t.Fatalf("isLocalDevSMTPHost(%q)=%v want %v", tc.host, got, tc.want)
		}
	}
}

func TestResolveTLSMode(t *testing.T) {
	cases := []struct {
		mode string
		port int
		want TLSMode
	}{
		{"", 465, TLSModeImplicit},
		{"", 587, TLSModeStartTLS},
		{"auto", 25, TLSModeStartTLS},
		{"off", 1025, TLSModeDisabled},
		{"START_TLS", 465, TLSModeStartTLS},
		{"smtps", 0, ""},
	}
	for _, tc := range cases {
		sender := NewSender(Options{Host: "smtp.example.com", Port: tc.port, TLSMode: tc.mode})
		got, err := sender.resolveTLSMode()
		if tc.want == "" {
			if err == nil {
				t.Fatalf("expected error for mode %q", tc.mode)
			}
			continue
		}
		if err != nil {
			t.Fatalf("resolveTLSMode(%q, %d) error: %v", tc.mode, tc.port, err)
		}
		if got != tc.want {
			t.Fatalf("resolveTLSMode(%q, %d)=%q want %q", tc.mode, tc.port, got, tc.want)
		}
	}
}

func TestIsAuthUnsupported(t *testing.T) {
	if isAuthUnsupported(nil) {
		t.Fatalf("nil error must not be auth unsupported")
	}
	if !isAuthUnsupported(errors.New("dial: server does not support SMTP AUTH")) {
		t.Fatalf("expected auth unsupported to be detected")
	}
	if isAuthUnsupported(errors.New("connection refused")) {
		t.Fatalf("unexpected auth unsupported match")
	}
}
