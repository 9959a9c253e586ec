// Command ppscal simulates the PPS counter calibration loop.
package main

import "github.com/sarchlab/ppscal/ppscal/cmd"

func main() {
	cmd.Execute()
}
