package main

import "arxiv_digest/cmd"

func main() {
	cmd.Execute()
}
