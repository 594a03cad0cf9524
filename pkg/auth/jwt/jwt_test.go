package jwt

import (
	"encoding/base64"
	"errors"
	"slices"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// createToken signs claims with a throwaway HMAC key. The decoder never
// checks the signature, so any key works.
func createToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte("not-verified"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return tokenStr
}

func validClaims() jwtlib.MapClaims {
	return jwtlib.MapClaims{
		"aud": "my-api",
		"iss": "https://auth.example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
		"scp": "read write",
	}
}

func TestDecode_ValidToken(t *testing.T) {
	d := New(Config{})
	exp := time.Now().Add(time.Hour).Unix()
	claims := validClaims()
	claims["exp"] = exp

	got, err := d.Decode(createToken(t, claims))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Audience != "my-api" {
		t.Errorf("Audience = %q, want %q", got.Audience, "my-api")
	}
	if got.Issuer != "https://auth.example.com" {
		t.Errorf("Issuer = %q, want %q", got.Issuer, "https://auth.example.com")
	}
	if got.Expiry != exp {
		t.Errorf("Expiry = %d, want %d", got.Expiry, exp)
	}
	if !slices.Equal(got.Scopes, []string{"read", "write"}) {
		t.Errorf("Scopes = %v, want [read write]", got.Scopes)
	}
}

func TestDecode_SignatureIsNotVerified(t *testing.T) {
	d := New(Config{})
	token := createToken(t, validClaims())

	// Replace the signature segment entirely.
	tampered := token[:len(token)-10] + "AAAAAAAAAA"

	if _, err := d.Decode(tampered); err != nil {
		t.Fatalf("Decode() of token with bad signature error = %v, want nil", err)
	}
}

func TestDecode_ExpiredTokenStillDecodes(t *testing.T) {
	d := New(Config{})
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()

	got, err := d.Decode(createToken(t, claims))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Expiry >= time.Now().Unix() {
		t.Errorf("Expiry = %d, expected a past timestamp", got.Expiry)
	}
}

func TestDecode_ScopesArray(t *testing.T) {
	d := New(Config{})
	claims := validClaims()
	claims["scp"] = []string{"read", "admin"}

	got, err := d.Decode(createToken(t, claims))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !slices.Equal(got.Scopes, []string{"read", "admin"}) {
		t.Errorf("Scopes = %v, want [read admin]", got.Scopes)
	}
}

func TestDecode_MissingScopesIsEmpty(t *testing.T) {
	d := New(Config{})
	claims := validClaims()
	delete(claims, "scp")

	got, err := d.Decode(createToken(t, claims))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got.Scopes) != 0 {
		t.Errorf("Scopes = %v, want empty", got.Scopes)
	}
}

func TestDecode_CustomScopesClaim(t *testing.T) {
	d := New(Config{ScopesClaim: "scope"})
	claims := validClaims()
	claims["scope"] = "files.read"

	got, err := d.Decode(createToken(t, claims))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !slices.Equal(got.Scopes, []string{"files.read"}) {
		t.Errorf("Scopes = %v, want [files.read]", got.Scopes)
	}
}

func TestDecode_SingleElementAudienceArray(t *testing.T) {
	d := New(Config{})
	claims := validClaims()
	claims["aud"] = []string{"my-api"}

	got, err := d.Decode(createToken(t, claims))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Audience != "my-api" {
		t.Errorf("Audience = %q, want %q", got.Audience, "my-api")
	}
}

func TestDecode_IgnoresHeaderAlgorithm(t *testing.T) {
	d := New(Config{})
	payload := base64.RawURLEncoding.EncodeToString([]byte(
		`{"aud":"my-api","iss":"https://auth.example.com","exp":4102444800,"scp":"read"}`))

	tests := []struct {
		name   string
		header string
	}{
		{"no alg", `{"typ":"JWT"}`},
		{"unknown alg", `{"alg":"ES256K","typ":"JWT"}`},
		{"alg none", `{"alg":"none"}`},
		{"registered alg", `{"alg":"RS256"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := base64.RawURLEncoding.EncodeToString([]byte(tt.header)) + "." + payload + ".c2ln"
			got, err := d.Decode(token)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.Audience != "my-api" || got.Issuer != "https://auth.example.com" || got.Expiry != 4102444800 {
				t.Errorf("claims = %+v", got)
			}
			if !slices.Equal(got.Scopes, []string{"read"}) {
				t.Errorf("Scopes = %v, want [read]", got.Scopes)
			}
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	d := New(Config{})

	withClaims := func(mutate func(jwtlib.MapClaims)) string {
		c := validClaims()
		mutate(c)
		return createToken(t, c)
	}
	rawPayload := func(payload string) string {
		header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
		body := base64.RawURLEncoding.EncodeToString([]byte(payload))
		return header + "." + body + ".c2ln"
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "not-a-jwt"},
		{"two segments", "abc.def"},
		{"payload not base64", "eyJhbGciOiJIUzI1NiJ9.!!!.sig"},
		{"payload not json", rawPayload("not json")},
		{"payload is array", rawPayload(`["a"]`)},
		{"header not json", "bm90LWpzb24." + base64.RawURLEncoding.EncodeToString([]byte(`{"aud":"my-api"}`)) + ".c2ln"},
		{"missing aud", withClaims(func(c jwtlib.MapClaims) { delete(c, "aud") })},
		{"multi-valued aud", withClaims(func(c jwtlib.MapClaims) { c["aud"] = []string{"a", "b"} })},
		{"missing iss", withClaims(func(c jwtlib.MapClaims) { delete(c, "iss") })},
		{"iss wrong type", withClaims(func(c jwtlib.MapClaims) { c["iss"] = 42 })},
		{"missing exp", withClaims(func(c jwtlib.MapClaims) { delete(c, "exp") })},
		{"exp wrong type", withClaims(func(c jwtlib.MapClaims) { c["exp"] = "tomorrow" })},
		{"scp wrong type", withClaims(func(c jwtlib.MapClaims) { c["scp"] = 7 })},
		{"scp array with number", withClaims(func(c jwtlib.MapClaims) { c["scp"] = []any{"read", 1} })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := d.Decode(tt.token)
			if err == nil {
				t.Fatalf("Decode() = %+v, want error", claims)
			}
			if !errors.Is(err, ErrDecode) {
				t.Errorf("error %v does not wrap ErrDecode", err)
			}
			if claims != nil {
				t.Errorf("claims = %+v, want nil on failure", claims)
			}
		})
	}
}

func TestDecode_ConcurrentUse(t *testing.T) {
	d := New(Config{})
	token := createToken(t, validClaims())

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			_, err := d.Decode(token)
			done <- err
		}()
	}
	for i := 0; i < 20; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent Decode() error = %v", err)
		}
	}
}
