package display

import (
	"fmt"
	"os"

	"github.com/backmassage/squeeze/internal/term"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner() {
	if term.Enabled() {
		fmt.Fprint(os.Stdout, term.Magenta)
	}
	fmt.Fprint(os.Stdout, ` ___  __ _ _   _  ___  ___ _______
/ __|/ _`+"`"+` | | | |/ _ \/ _ \_  / _ \
\__ \ (_| | |_| |  __/  __// /  __/
|___/\__, |\__,_|\___|\___/___\___|
        |_|
`)
	if term.Enabled() {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}
