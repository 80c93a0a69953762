package main

import "github.com/medportal/medportal/cmd"

func main() {
	cmd.Execute()
}
