package cmd

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"syscall"
)

// RunExtension attempts to find and execute an external rbs-<subcommand>
// binary, so the CLI can grow commands without recompiling. It returns
// (true, exitCode) if an extension was found and executed, and (false, 0)
// otherwise. The market and scenario files travel as environment variables.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "rbs-" + subcommand

	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		log.Printf("External command %q not found in PATH: %v", externalCmdName, err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, EnvMarketFile+"="+envDefault(EnvMarketFile, "market.jsonl"))
	if v := os.Getenv(EnvScenarioFile); v != "" {
		cmd.Env = append(cmd.Env, EnvScenarioFile+"="+v)
	}

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				return true, status.ExitStatus()
			}
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}
