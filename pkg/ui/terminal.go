package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ASCIILogo is printed at the top of interactive runs
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════════════╗
    ║ ████████╗██╗    ██╗███████╗███████╗████████╗              ║
    ║ ╚══██╔══╝██║    ██║██╔════╝██╔════╝╚══██╔══╝              ║
    ║    ██║   ██║ █╗ ██║█████╗  █████╗     ██║    bot          ║
    ║    ██║   ██║███╗██║██╔══╝  ██╔══╝     ██║                 ║
    ║    ██║   ╚███╔███╔╝███████╗███████╗   ██║                 ║
    ║    ╚═╝    ╚══╝╚══╝ ╚══════╝╚══════╝   ╚═╝                 ║
    ║           find the quiet #100DaysOfCode check-ins         ║
    ╚═══════════════════════════════════════════════════════════╝
`

var (
	mu        sync.RWMutex
	out       io.Writer = os.Stdout
	quietMode bool
	noColor   bool
)

// SetOutput redirects terminal output. nil restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// Output returns the current terminal writer.
func Output() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return out
}

// SetQuietMode suppresses everything but errors.
func SetQuietMode(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

// IsQuietMode reports whether quiet mode is on.
func IsQuietMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return quietMode
}

// SetNoColor turns ANSI colors off.
func SetNoColor(disabled bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = disabled
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.RLock()
		plain := noColor
		mu.RUnlock()
		if plain {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

func printf(format string, args ...interface{}) {
	fmt.Fprintf(Output(), format, args...)
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if IsQuietMode() {
		return
	}
	printf("%s", Cyan(ASCIILogo))
}

// PrintError prints an error message in red. Errors print even in quiet mode.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		printf("%s\n", Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		printf("%s\n", Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if IsQuietMode() {
		return
	}
	printf("%s\n", Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	if IsQuietMode() {
		return
	}
	printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	if len(args) > 0 {
		printf("%s\n", Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		printf("%s\n", Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if IsQuietMode() {
		return
	}
	printf("%s\n", Magenta(msg))
}

// Println writes a plain line; quiet mode does not apply. The timeline
// command uses it for its data output.
func Println(line string) {
	printf("%s\n", line)
}
