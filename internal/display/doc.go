// Package display renders user-facing output for check runs: the error
// report blocks, the verbose repository dump and warning messages.
//
// # Report Blocks
//
// After verification, print whichever blocks apply:
//
//	display.ScanErrors(os.Stdout, root, scanErrs)
//	display.VerifyErrors(os.Stdout, root, result.Issues)
//	display.CopyPastes(os.Stdout, root, result.CopyPastes)
//	if ok {
//	    display.Success(os.Stdout)
//	}
//
// Each block renders only when it has content, so a clean run prints the
// success line alone. Blocks are bounded by `=== ... ===` headers that CI
// logs can be grepped for.
//
// # Warnings
//
// Warnings carry a title and optional detail, file list and suggestion:
//
//	warning := display.WarnUntrackedFiles(files)
//	warning.Display(os.Stderr)
//
// # Colors
//
// All coloring goes through fatih/color, so NO_COLOR and the --color flag
// (via color.NoColor) are honored everywhere. Functions accept io.Writer
// for testability.
package display
