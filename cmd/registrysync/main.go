// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/registrysync/cmd/registrysync/cmd"
)

func main() {
	cmd.Execute()
}
