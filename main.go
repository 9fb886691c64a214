package main

import "media-sync/cmd"

func main() {
	cmd.Execute()
}
