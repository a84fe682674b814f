package main

import (
	"github.com/wompRS/WompBot-Discord-sub002/cmd"
)

func main() {
	cmd.Execute()
}
