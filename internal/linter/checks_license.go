package linter

import (
	"context"
	"regexp"

	"git.home.luguber.info/inful/clomonitor/internal/linter/licensecheck"
)

// licenseFilePatterns locates the repository license for the detection
// pre-pass run by the engine.
var licenseFilePatterns = FilePattern{Patterns: []string{"LICENSE*", "COPYING*"}}

// licenseScanningURLRE captures links to hosted license scanning results.
var licenseScanningURLRE = []*regexp.Regexp{
	regexp.MustCompile(`(https://app\.fossa\.(?:io|com)/projects/[^)"'\s]+)`),
	regexp.MustCompile(`(https://snyk\.io/test/github/[^)"'\s]+)`),
}

func checkLicenseSPDXID(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if in.SPDXID == "" {
		return NotPassed(), nil
	}
	out := Pass()
	out.Value = in.SPDXID
	if in.LicenseFile != "" {
		out.URL = in.RepoFileURL(in.LicenseFile)
	}
	return out, nil
}

func checkLicenseApproved(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if in.SPDXID == "" {
		return NotPassed(), nil
	}
	out := NotPassed()
	out.Passed = licensecheck.IsApproved(in.SPDXID)
	out.Value = in.SPDXID
	return out, nil
}

func checkLicenseScanning(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if in.Metadata != nil && in.Metadata.LicenseScanning != nil && in.Metadata.LicenseScanning.URL != "" {
		return PassURL(in.Metadata.LicenseScanning.URL), nil
	}
	for _, re := range licenseScanningURLRE {
		if url := in.Readme.Capture(re); url != "" {
			return PassURL(url), nil
		}
	}
	return NotPassed(), nil
}
