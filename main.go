package main

import "github.com/KaramelBytes/tbburden/cmd"

func main() {
	cmd.Execute()
}
