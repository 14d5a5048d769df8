package main

import "github.com/santiagomed/edpgen/cli"

func main() {
	cli.Execute()
}
