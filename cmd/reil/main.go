// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command reil parses and runs IR programs written in concrete syntax.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezrec/reil/arch"
	_ "github.com/ezrec/reil/arch/x86"
	"github.com/ezrec/reil/emulator"
	"github.com/ezrec/reil/reil"
	"github.com/ezrec/reil/translate"
)

// options shared by every subcommand.
type options struct {
	arch     string
	archFile string
	verbose  bool
	defines  []string
	program  bool
	lang     string
}

// loadArch returns the selected architecture.
func (opts *options) loadArch() (desc *arch.Arch, err error) {
	if len(opts.archFile) == 0 {
		return arch.Lookup(opts.arch)
	}

	inf, err := os.Open(opts.archFile)
	if err != nil {
		return
	}
	defer inf.Close()

	return arch.Load(inf)
}

// parser returns a parser with the -D predefines applied.
func (opts *options) parser() (p *reil.Parser, err error) {
	p = &reil.Parser{Verbose: opts.verbose}
	for _, define := range opts.defines {
		name, value, ok := strings.Cut(define, "=")
		if !ok {
			err = fmt.Errorf("-D %v: expected NAME=VALUE", define)
			return
		}
		p.Predefine(name, value)
	}
	return
}

// parseFile parses a file as a flat sequence, or as a native program.
func (opts *options) parseFile(path string) (prog *reil.Program, err error) {
	p, err := opts.parser()
	if err != nil {
		return
	}

	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	if opts.program {
		return p.ParseProgram(inf)
	}

	code, err := p.Parse(inf)
	if err != nil {
		return
	}

	prog = &reil.Program{Natives: []reil.Native{{Code: code}}}
	return
}

// parseUint parses a decimal or prefixed number.
func parseUint(text string) (uint64, error) {
	return strconv.ParseUint(strings.ReplaceAll(text, "_", ""), 0, 64)
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "reil",
		Short: "Parse and run REIL intermediate code",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(opts.lang) != 0 {
				err = translate.Use(opts.lang)
			}
			return
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&opts.arch, "arch", "x86", "Builtin architecture")
	rootCmd.PersistentFlags().StringVar(&opts.archFile, "arch-file", "", "TOML architecture description")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose mode")
	rootCmd.PersistentFlags().StringArrayVarP(&opts.defines, "define", "D", nil, "Predefine NAME=VALUE")
	rootCmd.PersistentFlags().StringVar(&opts.lang, "lang", "", "Message language, as a BCP 47 tag")
	rootCmd.PersistentFlags().BoolVarP(&opts.program, "program", "p", false, "Input is a native program of ADDRESS: headers")

	rootCmd.AddCommand(parseCommand(opts), runCommand(opts), replCommand(opts), archCommand(opts))

	err := rootCmd.Execute()
	if err != nil {
		log.SetFlags(0)
		log.Fatal(err)
	}
}

func parseCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the canonical text of each instruction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			prog, err := opts.parseFile(args[0])
			if err != nil {
				return
			}

			out := cmd.OutOrStdout()
			for _, native := range prog.Natives {
				if opts.program {
					fmt.Fprintf(out, "%#x: %v\n", native.Address, native.Mnemonic)
				}
				for _, ins := range native.Code {
					if opts.program {
						fmt.Fprint(out, "\t")
					}
					fmt.Fprintln(out, ins)
				}
			}
			return
		},
	}
}

func archCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "arch",
		Short: "List architectures, or describe the selected one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			out := cmd.OutOrStdout()
			if !cmd.Flags().Changed("arch") && len(opts.archFile) == 0 {
				for name := range arch.Names() {
					fmt.Fprintln(out, name)
				}
				return
			}

			desc, err := opts.loadArch()
			if err != nil {
				return
			}

			fmt.Fprintf(out, "%v: %d-bit address, %v endian\n", desc.Name, desc.AddressSize, desc.ByteOrder)
			for _, reg := range desc.Registers {
				fmt.Fprintf(out, "  %-6v %3d\n", reg.Name, reg.Width)
			}
			for _, alias := range desc.Aliases {
				fmt.Fprintf(out, "  %-6v %3d  %v[%d:%d]\n", alias.Name, alias.Width, alias.Base, alias.Offset+alias.Width-1, alias.Offset)
			}
			return
		},
	}
}

func runCommand(opts *options) *cobra.Command {
	var registers map[string]string
	var loads []string
	var maxSteps int
	var strict bool
	var start string

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Execute a program and print the final state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			desc, err := opts.loadArch()
			if err != nil {
				return
			}

			prog, err := opts.parseFile(args[0])
			if err != nil {
				return
			}

			emu, err := emulator.NewEmulator(emulator.Config{
				Arch:     desc,
				MaxSteps: maxSteps,
				Strict:   strict,
				Verbose:  opts.verbose,
			})
			if err != nil {
				return
			}

			ctx := emulator.Context{
				Registers: map[string]uint64{},
				Memory:    desc.NewMemory(),
			}
			for name, text := range registers {
				var value uint64
				value, err = parseUint(text)
				if err != nil {
					err = fmt.Errorf("--reg %v: %w", name, err)
					return
				}
				ctx.Registers[name] = value
			}
			for _, load := range loads {
				err = loadImage(ctx, load)
				if err != nil {
					return
				}
			}

			var result *emulator.Result
			if opts.program {
				var address uint64
				switch {
				case len(start) != 0:
					address, err = parseUint(start)
					if err != nil {
						return
					}
				case len(prog.Natives) != 0:
					address = prog.Natives[0].Address
				}
				result, err = emu.Execute(prog.Natives, address, ctx)
			} else {
				result, err = emu.ExecuteLite(prog.Natives[0].Code, ctx)
			}
			if err != nil {
				return
			}

			printResult(cmd.OutOrStdout(), desc, result)
			return
		},
	}

	cmd.Flags().StringToStringVar(&registers, "reg", nil, "Initial register NAME=VALUE")
	cmd.Flags().StringArrayVar(&loads, "load", nil, "Load raw image FILE@ADDRESS into memory")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 1_000_000, "Step limit, 0 for none")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on unkn instructions")
	cmd.Flags().StringVar(&start, "start", "", "Start address of a native program")

	return cmd
}

// loadImage loads FILE@ADDRESS into the context memory.
func loadImage(ctx emulator.Context, load string) (err error) {
	path, where, ok := strings.Cut(load, "@")
	if !ok {
		err = fmt.Errorf("--load %v: expected FILE@ADDRESS", load)
		return
	}

	address, err := parseUint(where)
	if err != nil {
		err = fmt.Errorf("--load %v: %w", load, err)
		return
	}

	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	_, err = ctx.Memory.Load(address, inf)
	return
}
