package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/ezrec/reil/arch"
	"github.com/ezrec/reil/emulator"
	"github.com/ezrec/reil/reil"
)

const replHelp = `Enter IR instructions, one per line. After each instruction the whole
sequence is re-run from the initial state. Commands:
  :regs         print every register
  :mem          print touched memory
  :list         print the instruction sequence
  :undo         drop the last instruction
  :set REG=VAL  set an initial register value
  :reset        clear instructions and initial registers
  :quit         exit
`

// session is the state of an interactive session.
type session struct {
	desc    *arch.Arch
	emu     *emulator.Emulator
	parser  *reil.Parser
	out     io.Writer
	code    []reil.Instruction
	initial map[string]uint64
	result  *emulator.Result
}

// rerun executes the accumulated sequence from the initial state.
func (s *session) rerun() (err error) {
	s.result, err = s.emu.ExecuteLite(s.code, emulator.Context{Registers: s.initial})
	return
}

// command handles a ':' command, returning true when the session ends.
func (s *session) command(line string) (done bool, err error) {
	word, arg, _ := strings.Cut(line, " ")
	switch word {
	case ":quit", ":q":
		done = true
	case ":help", ":h":
		fmt.Fprint(s.out, replHelp)
	case ":regs":
		if s.result != nil {
			printRegisters(s.out, s.desc, s.result.Registers, true)
		}
	case ":mem":
		if s.result != nil {
			printMemory(s.out, s.result)
		}
	case ":list":
		for n, ins := range s.code {
			fmt.Fprintf(s.out, "%4d  %v\n", n, ins)
		}
	case ":undo":
		if len(s.code) > 0 {
			s.code = s.code[:len(s.code)-1]
		}
		err = s.rerun()
	case ":set":
		name, text, ok := strings.Cut(strings.TrimSpace(arg), "=")
		if !ok {
			err = errors.New("expected :set REG=VALUE")
			return
		}
		var value uint64
		value, err = parseUint(strings.TrimSpace(text))
		if err != nil {
			return
		}
		s.initial[strings.TrimSpace(name)] = value
		err = s.rerun()
	case ":reset":
		s.code = nil
		clear(s.initial)
		err = s.rerun()
	default:
		err = fmt.Errorf("%v: unknown command, try :help", word)
	}

	return
}

// input handles one line of input.
func (s *session) input(line string) (done bool, err error) {
	line = strings.TrimSpace(line)
	switch {
	case len(line) == 0 || strings.HasPrefix(line, ";"):
		return
	case strings.HasPrefix(line, ":"):
		return s.command(line)
	}

	ins, err := s.parser.ParseLine(line)
	if err != nil {
		return
	}

	s.code = append(s.code, ins)
	err = s.rerun()
	if err != nil {
		// Keep the sequence runnable.
		s.code = s.code[:len(s.code)-1]
		return
	}

	printRegisters(s.out, s.desc, s.result.Registers, false)
	return
}

func replCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactively build and run an instruction sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			desc, err := opts.loadArch()
			if err != nil {
				return
			}

			emu, err := emulator.NewEmulator(emulator.Config{
				Arch:     desc,
				MaxSteps: 100_000,
				Verbose:  opts.verbose,
			})
			if err != nil {
				return
			}

			parser, err := opts.parser()
			if err != nil {
				return
			}

			history := ""
			home, err := os.UserHomeDir()
			if err == nil {
				history = filepath.Join(home, ".reil_history")
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:      desc.Name + "> ",
				HistoryFile: history,
			})
			if err != nil {
				return
			}
			defer rl.Close()

			s := &session{
				desc:    desc,
				emu:     emu,
				parser:  parser,
				out:     rl.Stdout(),
				initial: map[string]uint64{},
			}

			fmt.Fprintln(s.out, "Type :help for commands.")

			for {
				var line string
				line, err = rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					err = nil
					return
				}
				if err != nil {
					return
				}

				var done bool
				done, err = s.input(line)
				if err != nil {
					fmt.Fprintln(rl.Stderr(), err)
					err = nil
				}
				if done {
					return
				}
			}
		},
	}
}
