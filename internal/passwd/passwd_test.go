package passwd

import (
	"strings"
	"testing"
)

var testParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestHashAndVerify(t *testing.T) {
	encoded, err := HashWithParams("hunter2", testParams)
	if err != nil {
		t.Fatalf("HashWithParams: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}

	ok, err := Verify("hunter2", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify(correct) = %v, %v", ok, err)
	}
	ok, err = Verify("hunter3", encoded)
	if err != nil || ok {
		t.Fatalf("Verify(wrong) = %v, %v", ok, err)
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	a, _ := HashWithParams("same", testParams)
	b, _ := HashWithParams("same", testParams)
	if a == b {
		t.Error("expected different hashes for the same password")
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$aa$bb", "$argon2id$v=1$m=1,t=1,p=1$aa$bb"} {
		if _, err := Verify("x", in); err == nil {
			t.Errorf("Verify(%q) expected error", in)
		}
	}
}
