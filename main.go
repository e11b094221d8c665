package main

import "github.com/ValentinKolb/kvmsg/cmd"

func main() {
	cmd.Execute()
}
