package licensecheck

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsApproved(t *testing.T) {
	for _, id := range []string{"Apache-2.0", "MIT", "BSD-3-Clause", "Zlib"} {
		if !IsApproved(id) {
			t.Errorf("%s should be approved", id)
		}
	}
	for _, id := range []string{"GPL-3.0", "AGPL-3.0", "NOASSERTION", ""} {
		if IsApproved(id) {
			t.Errorf("%s should not be approved", id)
		}
	}
}

const mitText = `MIT License

Copyright (c) 2024 Acme

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
`

func TestDetect(t *testing.T) {
	id, err := Detect([]byte(mitText))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "MIT" {
		t.Errorf("detected %q, want MIT", id)
	}
}

func TestDetectNoMatch(t *testing.T) {
	id, err := Detect([]byte("This file carries no license text at all.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "" {
		t.Errorf("detected %q, want empty", id)
	}
}

func TestDetectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "LICENSE")
	if err := os.WriteFile(path, []byte(mitText), 0o600); err != nil {
		t.Fatal(err)
	}

	id, err := DetectFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "MIT" {
		t.Errorf("detected %q, want MIT", id)
	}

	if _, err := DetectFile(filepath.Join(dir, "COPYING")); err == nil {
		t.Error("expected error for missing file")
	}
}
