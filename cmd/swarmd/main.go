// Command swarmd runs and controls the swarm daemon.
package main

import "github.com/swarmcom/swarm/cmd/swarmd/cmd"

func main() {
	cmd.Execute()
}
