package main

import "ofsadmin/cmd"

func main() {
	cmd.Execute()
}
