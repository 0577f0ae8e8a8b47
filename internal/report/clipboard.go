package report

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

// ClipboardUnsupported reports whether no clipboard utility is available,
// e.g. on a headless host.
func ClipboardUnsupported() bool {
	return clipboard.Unsupported
}

// CopyToClipboard places the raw JSON on the system clipboard.
func CopyToClipboard(r *Report) error {
	if err := clipboardWrite(r.RawJSON); err != nil {
		return fmt.Errorf("copying report to clipboard: %w", err)
	}
	return nil
}
