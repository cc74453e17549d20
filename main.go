// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"os/user"

	"dmchem/internal/parser"
	"dmchem/repl"
)

func main() {
	currentUser, err := user.Current()
	if err != nil {
		fmt.Printf("Error getting current user: %v\n", err)
		return
	}

	fmt.Printf("Welcome to the dmchem REPL, %s!\n", currentUser.Username)
	fmt.Println("Type a value expression, or #define NAME value.")
	repl.Start(os.Stdin, os.Stdout, parser.DefaultMacros())
}
