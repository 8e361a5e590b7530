package config

import (
	"testing"

	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/illarion/vaultfs/internal/medium"
	"github.com/illarion/vaultfs/internal/storage"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestFromLookup(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    Config
		wantErr bool
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: Config{
				ContainerPath: DefaultContainer,
				MediumLabel:   medium.DefaultLabel,
				MaxFiles:      storage.DefaultMaxFiles,
				Iterations:    crypto.DefaultIters,
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				EnvContainer:     "/data/c.bin",
				EnvMediumLabel:   "KEYSTICK",
				EnvMediumPath:    "/mnt/key",
				EnvMaxFiles:      "5",
				EnvKDFIterations: "2000",
			},
			want: Config{
				ContainerPath: "/data/c.bin",
				MediumLabel:   "KEYSTICK",
				MediumPath:    "/mnt/key",
				MaxFiles:      5,
				Iterations:    2000,
			},
		},
		{
			name:    "bad max files",
			env:     map[string]string{EnvMaxFiles: "many"},
			wantErr: true,
		},
		{
			name:    "iterations above 32 bits",
			env:     map[string]string{EnvKDFIterations: "4294967296"},
			wantErr: true,
		},
		{
			name:    "negative iterations",
			env:     map[string]string{EnvKDFIterations: "-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromLookup(lookupFrom(tt.env))
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("FromLookup failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLocator(t *testing.T) {
	cfg := Default()
	if _, ok := cfg.Locator().(*medium.LabelLocator); !ok {
		t.Errorf("expected label locator, got %T", cfg.Locator())
	}

	cfg.MediumPath = t.TempDir()
	loc, ok := cfg.Locator().(medium.DirLocator)
	if !ok {
		t.Fatalf("expected dir locator, got %T", cfg.Locator())
	}
	if loc.Dir != cfg.MediumPath {
		t.Errorf("Dir = %s, want %s", loc.Dir, cfg.MediumPath)
	}
}
