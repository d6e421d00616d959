// Package testutils holds shared test helpers.
package testutils

import (
	"os"
	"path"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// CheckGoldenFile compares actual against the golden file at expectFilePath,
// reporting a unified diff on mismatch. A missing golden file is created
// from actual; review and commit it.
func CheckGoldenFile(t *testing.T, actual []byte, expectFilePath string) {
	t.Helper()

	expect, err := os.ReadFile(expectFilePath)
	if os.IsNotExist(err) {
		err = os.MkdirAll(path.Dir(expectFilePath), 0755)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(expectFilePath, actual, 0444)
		if err != nil {
			t.Fatal(err)
		}
		return
	} else if err != nil {
		t.Error(err)
		return
	}

	if string(expect) != string(actual) {
		diff := difflib.UnifiedDiff{
			A:       difflib.SplitLines(string(expect)),
			B:       difflib.SplitLines(string(actual)),
			Context: 5,
		}
		d, err := difflib.GetUnifiedDiffString(diff)
		if err != nil {
			t.Fatal(err)
		}
		t.Error(d)
	}
}
