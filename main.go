package main

import "github.com/lop-gin/janus/cmd"

func main() {
	cmd.Execute()
}
