package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/guardrail-ml/gce/pkg/gce"
)

const (
	prompt  = "\033[31mgce»\033[0m "
	history = "/tmp/gce-shell.tmp"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("backend"),
	readline.PcItem("quickcheck"),
	readline.PcItem("verdict"),
	readline.PcItem("bounds"),
	readline.PcItem("explain"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
)

const shellHelp = `Commands:
  backend               Show the active verdict backend
  quickcheck            Score the built-in smoke bundle
  verdict <file>        Score a run bundle from a JSON file
  bounds <theta> <eps>  Print Frechet-Hoeffding bounds
  explain <file>        Narrate the verdict for a bundle
  help                  Show this help
  exit                  Leave the shell
`

func cmdShell() {
	svc := buildService()

	reader, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		die("%v\n", err)
	}
	defer reader.Close()

	for {
		line, err := reader.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		if done := dispatch(svc, strings.TrimSpace(line)); done {
			break
		}
	}
}

// dispatch runs a single shell command and reports whether the shell
// should exit.
func dispatch(svc gce.Service, line string) bool {
	if line == "" {
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "exit", "quit":
		return true

	case "help":
		fmt.Print(shellHelp)

	case "backend":
		info := svc.BackendInfo()
		fmt.Printf("%s (%s): %s\n", info.Backend, info.Provider, info.Reason)

	case "quickcheck":
		run, err := svc.ComputeVerdict(context.Background(), smokeBundle())
		if err != nil {
			fmt.Printf("quickcheck failed: %v\n", err)
			return false
		}
		fmt.Println(svc.FormatVerdict(&run.Verdict))

	case "verdict":
		if len(args) != 1 {
			fmt.Println("usage: verdict <file>")
			return false
		}
		bundle, err := loadBundle(args[0])
		if err != nil {
			fmt.Printf("%v\n", err)
			return false
		}
		run, err := svc.ComputeVerdict(context.Background(), bundle)
		if err != nil {
			fmt.Printf("verdict failed: %v\n", err)
			return false
		}
		fmt.Println(svc.FormatVerdict(&run.Verdict))

	case "bounds":
		if len(args) != 2 {
			fmt.Println("usage: bounds <theta> <epsilon>")
			return false
		}
		theta, err1 := strconv.ParseFloat(args[0], 64)
		epsilon, err2 := strconv.ParseFloat(args[1], 64)
		if err1 != nil || err2 != nil {
			fmt.Println("usage: bounds <theta> <epsilon>")
			return false
		}
		lower, upper := gce.FHBounds(theta, epsilon)
		fmt.Printf("[%.4f, %.4f]\n", lower, upper)

	case "explain":
		if len(args) != 1 {
			fmt.Println("usage: explain <file>")
			return false
		}
		bundle, err := loadBundle(args[0])
		if err != nil {
			fmt.Printf("%v\n", err)
			return false
		}
		run, err := svc.ComputeVerdict(context.Background(), bundle)
		if err != nil {
			fmt.Printf("explain failed: %v\n", err)
			return false
		}
		text, err := svc.ExplainVerdict(context.Background(), &run.Bundle, &run.Verdict)
		if err != nil {
			fmt.Printf("explain failed: %v\n", err)
			return false
		}
		fmt.Println(text)

	default:
		fmt.Printf("unknown command %q, try 'help'\n", cmd)
	}

	return false
}
