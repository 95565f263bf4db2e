package main

import (
	_ "time/tzdata"

	"github.com/frahmantamala/permit-to-work/cmd"
)

func main() {
	cmd.Execute()
}
