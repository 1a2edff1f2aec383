package mcraw

import "testing"

func TestParseContainerMetadata_AppVersion(t *testing.T) {
	meta, err := ParseContainerMetadata([]byte(`{"appVersion":"1.4.2"}`))
	if err != nil {
		t.Fatalf("ParseContainerMetadata: %v", err)
	}
	if meta.AppVersion == nil {
		t.Fatalf("expected AppVersion to be parsed")
	}
	if !meta.HasLegacyAudioLayout() {
		t.Errorf("1.4.2 should be considered legacy (< 1.6.0)")
	}
}

func TestParseContainerMetadata_CurrentVersion(t *testing.T) {
	meta, err := ParseContainerMetadata([]byte(`{"appVersion":"2.0.0"}`))
	if err != nil {
		t.Fatalf("ParseContainerMetadata: %v", err)
	}
	if meta.HasLegacyAudioLayout() {
		t.Errorf("2.0.0 should not be considered legacy")
	}
}

func TestParseContainerMetadata_NoAppVersion(t *testing.T) {
	meta, err := ParseContainerMetadata([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseContainerMetadata: %v", err)
	}
	if meta.AppVersion != nil {
		t.Fatalf("expected nil AppVersion")
	}
	if meta.HasLegacyAudioLayout() {
		t.Errorf("missing AppVersion should not be treated as legacy")
	}
}

func TestAudioChunk_Clone(t *testing.T) {
	c := AudioChunk{Timestamp: 5, Samples: []int16{1, 2, 3}}
	clone := c.Clone()
	clone.Samples[0] = 99
	if c.Samples[0] == 99 {
		t.Fatalf("Clone should not alias the original's backing array")
	}
}
