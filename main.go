// Command partcut splits oversized media files into independently playable
// parts via ffmpeg stream copy, resumably and without re-encoding.
package main

import "partcut/cmd"

func main() {
	cmd.Execute()
}
