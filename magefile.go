//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target runs a full build
var Default = Build

// Build compiles the aitdocs binary
func Build() error {
	fmt.Println("Building aitdocs...")
	return sh.Run("go", "build", "-o", "aitdocs", "./cmd/aitdocs")
}

// Test runs the test suite
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet over the module
func Vet() error {
	return sh.Run("go", "vet", "./...")
}

// Install builds and installs aitdocs into GOPATH/bin
func Install() error {
	mg.Deps(Test)
	fmt.Println("Installing aitdocs...")
	return sh.Run("go", "install", "./cmd/aitdocs")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm("aitdocs")
}
