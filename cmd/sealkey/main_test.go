package main

import (
	"bytes"
	"strings"
	"testing"

	"voice-journal/backend/internal/config"
)

func TestSecretFrom(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		stdin   string
		want    string
		wantErr bool
	}{
		{name: "argument", args: []string{"sk-arg"}, stdin: "ignored\n", want: "sk-arg"},
		{name: "stdin line", stdin: "  sk-stdin \nrest", want: "sk-stdin"},
		{name: "stdin without newline", stdin: "sk-eof", want: "sk-eof"},
		{name: "nothing", stdin: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := secretFrom(tt.args, strings.NewReader(tt.stdin))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("expected %q, got %q (%v)", tt.want, got, err)
			}
		})
	}
}

func TestSealCommand(t *testing.T) {
	const masterKey = "test-master-key-0123456789abcdef"
	t.Setenv("SEALKEY_TEST_MASTER", masterKey)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader("sk-from-stdin\n"))
	rootCmd.SetArgs([]string{"--master-key-env", "SEALKEY_TEST_MASTER"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	sealed := strings.TrimSpace(out.String())
	if !strings.HasPrefix(sealed, "enc:") {
		t.Fatalf("expected enc: prefix, got %q", sealed)
	}
	opened, err := config.Open(masterKey, sealed)
	if err != nil || opened != "sk-from-stdin" {
		t.Fatalf("expected round trip, got %q (%v)", opened, err)
	}

	rootCmd.SetArgs([]string{"a", "b"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for two arguments")
	}
}
