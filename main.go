package main

import "github.com/KaramelBytes/datasage-cli/cmd"

func main() {
	cmd.Execute()
}
