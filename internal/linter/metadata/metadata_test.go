package metadata

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestFromPathMissing(t *testing.T) {
	md, err := FromPath(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if md != nil {
		t.Errorf("expected nil metadata, got %+v", md)
	}
}

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".clomonitor.yml", `
licenseScanning:
  url: https://app.fossa.com/projects/custom/acme
exemptions:
  - check: artifacthub_badge
    reason: Not packaged for Artifact Hub
  - check: dco
    reason: ""
`)

	md, err := FromPath(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if md == nil {
		t.Fatal("expected metadata")
	}
	if md.LicenseScanning == nil || md.LicenseScanning.URL != "https://app.fossa.com/projects/custom/acme" {
		t.Errorf("license scanning = %+v", md.LicenseScanning)
	}

	if e := md.ExemptionFor("artifacthub_badge"); e == nil || e.Reason != "Not packaged for Artifact Hub" {
		t.Errorf("exemption = %+v", e)
	}
	// Empty reasons do not exempt.
	if e := md.ExemptionFor("dco"); e != nil {
		t.Errorf("expected no exemption for empty reason, got %+v", e)
	}
	if e := md.ExemptionFor("readme"); e != nil {
		t.Errorf("expected no exemption for undeclared check, got %+v", e)
	}
}

func TestFromPathAlternateName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".clomonitor.yaml", "exemptions:\n  - check: sbom\n    reason: n/a\n")

	md, err := FromPath(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if md == nil || md.ExemptionFor("sbom") == nil {
		t.Fatal("metadata from .clomonitor.yaml not loaded")
	}
}

func TestFromPathInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".clomonitor.yml", "exemptions: [unterminated")

	if _, err := FromPath(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExemptionForNilReceiver(t *testing.T) {
	var md *Metadata
	if e := md.ExemptionFor("readme"); e != nil {
		t.Errorf("nil metadata should yield no exemption, got %+v", e)
	}
}
