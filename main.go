package main

import "github.com/frahmantamala/recognition-portal/cmd"

func main() {
	cmd.Execute()
}
