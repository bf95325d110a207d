// Command matchpipe drives the windowed-detection, dedup, ranking, and
// half-merge steps of the pipeline from a terminal.
package main

func main() {
	Execute()
}
