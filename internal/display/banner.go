package display

import (
	"fmt"
	"os"

	"partcut/internal/term"
)

// PrintBanner prints the ASCII art banner.
func PrintBanner() {
	fmt.Fprintln(os.Stdout, term.Magenta.Paint(`                _            _
 _ __  __ _ _ _| |_ __ _  _ | |_
| '_ \/ _`+"`"+` | '_|  _/ _| || ||  _|
| .__/\__,_|_|  \__\__|\_,_| \__|
|_|
`))
}
