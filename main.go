package main

import "github.com/Demandflow/DemandSync/cmd"

func main() {
	cmd.Execute()
}
