// Command pharmaguard submits VCF files to the PharmaGuard analysis service
// and renders the per-drug risk reports in the terminal or the browser.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(1)
	}
}

// errorMessage shows analysis errors exactly as the web front does.
func errorMessage(err error) string {
	var ae *domain.AnalysisError
	if errors.As(err, &ae) {
		return ae.UserMessage()
	}
	return "Error: " + err.Error()
}
