package main

import "github.com/theirongolddev/grana/cmd"

func main() {
	cmd.Execute()
}
