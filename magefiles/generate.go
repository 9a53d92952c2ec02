//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Generate builds the CLI and runs one generation.
// TOPIC and STRATEGY environment variables are passed through as flags.
func Generate() error {
	mg.Deps(Build)
	args := []string{"generate"}
	if t := os.Getenv("TOPIC"); t != "" {
		args = append(args, "--topic", t)
	}
	if s := os.Getenv("STRATEGY"); s != "" {
		args = append(args, "--strategy", s)
	}
	return sh.RunV(binPath(), args...)
}

// Runs builds the CLI and lists recent generation runs.
func Runs() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "runs")
}
