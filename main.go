package main

import "webroot-sync/cmd"

func main() {
	cmd.Execute()
}
