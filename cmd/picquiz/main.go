// Command picquiz runs the picture quiz backend and its maintenance tasks.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
