package main

import "git_release_tool/cmd"

func main() {
	cmd.Initialize()
	cmd.Execute()
}
