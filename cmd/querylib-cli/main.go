package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/recalcitrant/querylib/internal/entity"
	"github.com/recalcitrant/querylib/internal/executor"
	"github.com/recalcitrant/querylib/internal/fixture"
	"github.com/recalcitrant/querylib/internal/orchestrator"
	"github.com/recalcitrant/querylib/internal/resultset"
	"github.com/recalcitrant/querylib/internal/telemetry"
)

const helpText = `querylib interactive REPL

Commands:
  load <file>         Load queries/backends/groups from a fixture JSON file
  list                List loaded QueryGroups
  use <group-id>      Set the active QueryGroup for "run"
  run [args-file]      Execute the active QueryGroup, optionally seeding
                        initial arguments from an ArgumentSet JSON file
  help                 Show this help message
  exit / quit          Exit the REPL

"run" executes against a shared in-memory (OxigraphMemory) executor backed
by an empty store; node-specific backends declared in the fixture are
resolved per node as usual.
`

func main() {
	telemetry.SetUp()

	reg := entity.NewRegister()
	store := executor.NewMapStore()
	defaultExec := executor.NewMemory(store)
	var active string

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("querylib — SPARQL parameterized-query orchestrator")
	fmt.Println(`Type "help" for available commands.`)
	fmt.Println()

	for {
		if active != "" {
			fmt.Printf("[%s]> ", active)
		} else {
			fmt.Print("> ")
		}

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "exit", "quit":
			return

		case "help":
			fmt.Print(helpText)

		case "list":
			groups := reg.GroupIDs()
			if len(groups) == 0 {
				fmt.Println("(no groups loaded)")
			} else {
				for _, id := range groups {
					marker := " "
					if id == active {
						marker = "*"
					}
					fmt.Printf("  %s %s\n", marker, id)
				}
			}

		case "use":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: use <group-id>")
				continue
			}
			id := parts[1]
			if _, err := reg.Group(id); err != nil {
				fmt.Fprintf(os.Stderr, "no group named %q\n", id)
				continue
			}
			active = id
			fmt.Printf("active group set to %q\n", id)

		case "load":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: load <file>")
				continue
			}
			path := parts[1]
			f, err := os.Open(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error opening %q: %v\n", path, err)
				continue
			}
			loaded, err := fixture.Load(f)
			f.Close()
			if err != nil {
				fmt.Fprintf(os.Stderr, "error loading %q: %v\n", path, err)
				continue
			}
			n := reg.Merge(loaded)
			fmt.Printf("loaded %q (%d groups)\n", path, n)

		case "run":
			if active == "" {
				fmt.Fprintln(os.Stderr, "no active group — use 'use' first")
				continue
			}
			group, err := reg.Group(active)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}

			opts := orchestrator.Options{DefaultExecutor: defaultExec}
			if len(parts) >= 2 {
				argsFile := parts[1]
				b, err := os.ReadFile(argsFile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error reading %q: %v\n", argsFile, err)
					continue
				}
				argSet, err := resultset.UnmarshalArgumentSet(b)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error parsing %q: %v\n", argsFile, err)
					continue
				}
				opts.InitialArgs = &argSet
			}

			res, err := orchestrator.Execute(context.Background(), group, reg, opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "execution error: %v\n", err)
				continue
			}
			printNodeResult(res)

		default:
			fmt.Fprintf(os.Stderr, "unrecognized command %q — type 'help'\n", cmd)
		}
	}
}

func printNodeResult(res orchestrator.NodeResult) {
	switch res.QueryType {
	case entity.QuerySelect:
		b, err := resultset.MarshalResultSet(res.Select)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error marshaling result: %v\n", err)
			return
		}
		var pretty map[string]any
		json.Unmarshal(b, &pretty)
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
	case entity.QueryConstruct, entity.QueryDescribe:
		fmt.Println(res.RDF)
	case entity.QueryAsk:
		fmt.Println(res.Boolean)
	default:
		fmt.Printf("node %s produced no printable result\n", res.NodeID)
	}
}
