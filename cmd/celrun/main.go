// Command celrun compiles and evaluates a single CEL expression
// against bindings supplied on the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	cel "github.com/1BADragon/rscel-sub001"
	"github.com/1BADragon/rscel-sub001/ascii"
	"github.com/1BADragon/rscel-sub001/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath  string
		binds    []string
		disasm   bool
		printAST bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "celrun <expression>",
		Short: "Compile and evaluate a CEL expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			bc := cel.NewBindContext()
			if verbose {
				bc = bc.WithLogger(funcr.New(func(prefix, args string) {
					fmt.Fprintln(os.Stderr, prefix, args)
				}, funcr.Options{Verbosity: 2}))
			} else {
				bc = bc.WithLogger(logr.Discard())
			}

			bindings, err := parseBindings(binds)
			if err != nil {
				return err
			}

			if err := bc.FromSource("main", args[0]); err != nil {
				return fmt.Errorf("compile: %w", err)
			}

			if disasm || printAST {
				theme := ascii.DefaultTheme
				if !cfg.Color {
					theme = ascii.Theme{}
				}
				prog, err := cel.ParseProgram(args[0])
				if err != nil {
					return fmt.Errorf("compile: %w", err)
				}
				if printAST {
					fmt.Fprint(os.Stdout, cel.PrintAST(prog.AST, theme))
				}
				if disasm {
					fmt.Fprint(os.Stdout, prog.Disassemble(theme))
				}
			}

			result, err := bc.Exec(context.Background(), "main", bindings)
			if err != nil {
				return fmt.Errorf("exec: %w", err)
			}
			fmt.Println(result.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a celrun.yaml config file")
	cmd.Flags().StringArrayVar(&binds, "bind", nil, "name=json_value binding, repeatable")
	cmd.Flags().BoolVar(&disasm, "disasm", false, "print the compiled bytecode before evaluating")
	cmd.Flags().BoolVar(&printAST, "ast", false, "print the parsed AST before evaluating")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable diagnostic logging")

	return cmd
}

// parseBindings turns a list of "name=json" strings into Bindings,
// decoding each value as JSON and lifting it into the closest CelValue
// shape (spec §6).
func parseBindings(raw []string) (cel.Bindings, error) {
	out := make(cel.Bindings, len(raw))
	for _, kv := range raw {
		name, jsonVal, ok := splitOnce(kv, '=')
		if !ok {
			return nil, fmt.Errorf("invalid --bind %q, expected name=json_value", kv)
		}
		var decoded any
		if err := json.Unmarshal([]byte(jsonVal), &decoded); err != nil {
			return nil, fmt.Errorf("invalid --bind %q: %w", kv, err)
		}
		out[name] = fromJSON(decoded)
	}
	return out, nil
}

func splitOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func fromJSON(v any) cel.CelValue {
	switch t := v.(type) {
	case nil:
		return cel.NullValue()
	case bool:
		return cel.BoolValue(t)
	case float64:
		if t == float64(int64(t)) {
			return cel.IntValue(int64(t))
		}
		return cel.FloatValue(t)
	case string:
		return cel.StringValue(t)
	case []any:
		items := make([]cel.CelValue, len(t))
		for i, it := range t {
			items[i] = fromJSON(it)
		}
		return cel.ListValue(items)
	case map[string]any:
		m := make(map[string]cel.CelValue, len(t))
		for k, it := range t {
			m[k] = fromJSON(it)
		}
		return cel.MapValue(m)
	default:
		return cel.NullValue()
	}
}
