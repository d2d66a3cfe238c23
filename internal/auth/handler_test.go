package auth

import (
	"net/http/httptest"
	"testing"
)

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name   string
		creds  credentials
		signup bool
		want   string
	}{
		{"valid signup", credentials{Email: "a@b.c", Password: "longenough", DisplayName: "A"}, true, ""},
		{"valid login", credentials{Email: "a@b.c", Password: "pw"}, false, ""},
		{"missing email", credentials{Password: "longenough"}, true, "email and password are required"},
		{"missing password", credentials{Email: "a@b.c"}, false, "email and password are required"},
		{"signup without name", credentials{Email: "a@b.c", Password: "longenough"}, true, "displayName is required"},
		{"signup short password", credentials{Email: "a@b.c", Password: "short", DisplayName: "A"}, true, "password must be at least 8 characters"},
		{"login short password allowed", credentials{Email: "a@b.c", Password: "short"}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.creds.validate(tt.signup); got != tt.want {
				t.Fatalf("validate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"well formed", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"missing header", "", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"prefix only", "Bearer ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/projects", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			token, ok := bearerToken(r)
			if ok != tt.ok || token != tt.token {
				t.Fatalf("bearerToken = %q,%v want %q,%v", token, ok, tt.token, tt.ok)
			}
		})
	}
}
