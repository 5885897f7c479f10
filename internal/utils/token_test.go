package utils

import "testing"

func TestGenerateOpaqueToken(t *testing.T) {
	token, hash, err := GenerateOpaqueToken()
	if err != nil {
		t.Fatalf("GenerateOpaqueToken() error = %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, expected 64", len(token))
	}
	if hash != HashOpaqueToken(token) {
		t.Error("hash should be the sha256 of the token")
	}
	if hash == token {
		t.Error("hash should differ from the token")
	}

	other, _, _ := GenerateOpaqueToken()
	if other == token {
		t.Error("two tokens should not collide")
	}
}
