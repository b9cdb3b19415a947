package version

import "testing"

func TestAPIMajor(t *testing.T) {
	if got := APIMajor(); got != 1 {
		t.Errorf("APIMajor() = %d, want 1", got)
	}
}

func TestParse(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	tests := []struct {
		version string
		wantErr bool
		major   uint64
	}{
		{"1.4.2", false, 1},
		{"v2.0.0-rc1", false, 2},
		{"dev", true, 0},
		{"", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			Version = tt.version
			v, err := Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && v.Major() != tt.major {
				t.Errorf("Major() = %d, want %d", v.Major(), tt.major)
			}
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.APIVersion != APIVersion {
		t.Errorf("APIVersion = %q, want %q", info.APIVersion, APIVersion)
	}
	if info.GoVersion == "" || info.Platform == "" {
		t.Errorf("runtime fields not populated: %+v", info)
	}
}
