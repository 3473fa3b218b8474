// Package repl implements the interactive console of the agerun
// runtime. It provides an environment where users can register methods,
// spawn agents, send messages and tick the dispatcher, with line
// editing and command history via the readline library and colored
// feedback for results and errors.
package repl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runtime"
)

// Color definitions for console output: blue for separators, yellow for
// results, red for errors, green for the banner, cyan for instructions.
var (
	blueColor   = color.New(color.FgBlue)
	yellowColor = color.New(color.FgYellow)
	redColor    = color.New(color.FgRed)
	greenColor  = color.New(color.FgGreen)
	cyanColor   = color.New(color.FgCyan)
)

// Repl is one interactive session over a dispatcher.
type Repl struct {
	Version string
	Prompt  string

	dispatcher *runtime.Dispatcher
	log        *eventlog.Log
	parser     *instruction.Parser
}

// NewRepl creates a session over the given dispatcher and log.
func NewRepl(version string, dispatcher *runtime.Dispatcher, log *eventlog.Log) *Repl {
	return &Repl{
		Version:    version,
		Prompt:     "agerun >>> ",
		dispatcher: dispatcher,
		log:        log,
		parser:     instruction.NewParser(log),
	}
}

// PrintBannerInfo displays the welcome banner and usage instructions.
func (r *Repl) PrintBannerInfo(writer io.Writer) {
	line := strings.Repeat("-", 60)
	blueColor.Fprintln(writer, line)
	greenColor.Fprintln(writer, "agerun interactive console")
	yellowColor.Fprintln(writer, "Version: "+r.Version)
	blueColor.Fprintln(writer, line)
	cyanColor.Fprintln(writer, "Commands:")
	cyanColor.Fprintln(writer, "  .method NAME VERSION   define a method (end the body with .end)")
	cyanColor.Fprintln(writer, "  .spawn NAME [VERSION]  create an agent, printing its id")
	cyanColor.Fprintln(writer, "  .send ID TEXT          enqueue a string message")
	cyanColor.Fprintln(writer, "  .run                   process messages until the queue is empty")
	cyanColor.Fprintln(writer, "  .step                  process a single message")
	cyanColor.Fprintln(writer, "  .agents / .methods     list live agents / registered methods")
	cyanColor.Fprintln(writer, "  .save / .load          persist or restore methods and agents")
	cyanColor.Fprintln(writer, "  .exit                  quit")
	cyanColor.Fprintln(writer, "Anything else is parsed as an instruction and its AST is shown.")
	blueColor.Fprintln(writer, line)
}

// Start runs the read-eval-print loop until .exit or end of input.
func (r *Repl) Start(writer io.Writer) error {
	r.PrintBannerInfo(writer)

	rl, err := readline.New(r.Prompt)
	if err != nil {
		return fmt.Errorf("repl: could not initialize readline: %w", err)
	}
	defer rl.Close()

	for {
		input, err := rl.Readline()
		if err != nil {
			// Interrupt or EOF ends the session
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == ".exit" {
			return nil
		}
		r.handle(rl, writer, input)
	}
}

// handle processes one line of input.
func (r *Repl) handle(rl *readline.Instance, writer io.Writer, input string) {
	if strings.HasPrefix(input, ".") {
		fields := strings.Fields(input)
		switch fields[0] {
		case ".method":
			r.defineMethod(rl, writer, fields[1:])
		case ".spawn":
			r.spawn(writer, fields[1:])
		case ".send":
			r.send(writer, input, fields[1:])
		case ".run":
			count := r.dispatcher.RunUntilQuiet()
			yellowColor.Fprintf(writer, "processed %d messages\n", count)
		case ".step":
			if r.dispatcher.Step() {
				yellowColor.Fprintln(writer, "processed 1 message")
			} else {
				yellowColor.Fprintln(writer, "queue is empty")
			}
		case ".agents":
			r.listAgents(writer)
		case ".methods":
			r.listMethods(writer)
		case ".save":
			r.save(writer)
		case ".load":
			r.load(writer)
		default:
			redColor.Fprintf(writer, "unknown command %s\n", fields[0])
		}
		return
	}

	// Not a command: show the instruction's parsed form
	node, err := r.parser.Parse(input)
	if err != nil {
		redColor.Fprintf(writer, "parse error: %s\n", err.Error())
		return
	}
	switch n := node.(type) {
	case *instruction.AssignmentNode:
		yellowColor.Fprintln(writer, n.String())
	case *instruction.FunctionCallNode:
		yellowColor.Fprintln(writer, n.String())
	}
}

// defineMethod reads a method body until .end and registers it.
func (r *Repl) defineMethod(rl *readline.Instance, writer io.Writer, args []string) {
	if len(args) != 2 {
		redColor.Fprintln(writer, "usage: .method NAME VERSION")
		return
	}
	name, version := args[0], args[1]

	body := make([]string, 0)
	rl.SetPrompt("... ")
	defer rl.SetPrompt(r.Prompt)
	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		if strings.TrimSpace(line) == ".end" {
			break
		}
		body = append(body, line)
	}

	if r.dispatcher.RegisterMethod(name, strings.Join(body, "\n"), version, false) {
		yellowColor.Fprintf(writer, "registered method %s version %s\n", name, version)
	} else {
		redColor.Fprintf(writer, "could not register method %s version %s\n", name, version)
	}
}

// spawn creates an agent of the named method.
func (r *Repl) spawn(writer io.Writer, args []string) {
	if len(args) < 1 || len(args) > 2 {
		redColor.Fprintln(writer, "usage: .spawn NAME [VERSION]")
		return
	}
	version := ""
	if len(args) == 2 {
		version = args[1]
	}
	id := r.dispatcher.SpawnAgent(args[0], version, nil)
	if id == 0 {
		redColor.Fprintf(writer, "could not spawn agent of method %s\n", args[0])
		return
	}
	yellowColor.Fprintf(writer, "spawned agent %d\n", id)
}

// send enqueues a string message. The text is everything after the id.
func (r *Repl) send(writer io.Writer, input string, args []string) {
	if len(args) < 2 {
		redColor.Fprintln(writer, "usage: .send ID TEXT")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		redColor.Fprintf(writer, "invalid agent id %q\n", args[0])
		return
	}
	idx := strings.Index(input, args[0])
	text := strings.TrimSpace(input[idx+len(args[0]):])
	if r.dispatcher.SendString(id, text) {
		yellowColor.Fprintf(writer, "sent to agent %d\n", id)
	} else {
		redColor.Fprintf(writer, "agent %d is not live\n", id)
	}
}

// listAgents prints the live agents in id order.
func (r *Repl) listAgents(writer io.Writer) {
	registry := r.dispatcher.Agents()
	ids := registry.IDs()
	if len(ids) == 0 {
		yellowColor.Fprintln(writer, "no live agents")
		return
	}
	for _, id := range ids {
		a := registry.Get(id)
		state := "active"
		if a.Draining {
			state = "draining"
		}
		yellowColor.Fprintf(writer, "agent %d: %s %s (%s)\n", id, a.MethodName(), a.MethodVersion(), state)
	}
}

// listMethods prints the registered methods in definition order.
func (r *Repl) listMethods(writer io.Writer) {
	methodology := r.dispatcher.Methodology()
	names := methodology.Names()
	if len(names) == 0 {
		yellowColor.Fprintln(writer, "no registered methods")
		return
	}
	for _, name := range names {
		for _, meth := range methodology.VersionsOf(name) {
			yellowColor.Fprintf(writer, "method %s version %s\n", name, meth.Version)
		}
	}
}

// save persists methods and agents.
func (r *Repl) save(writer io.Writer) {
	if err := r.dispatcher.SaveMethods(); err != nil {
		redColor.Fprintf(writer, "save methods failed: %v\n", err)
		return
	}
	if err := r.dispatcher.SaveAgents(); err != nil {
		redColor.Fprintf(writer, "save agents failed: %v\n", err)
		return
	}
	yellowColor.Fprintln(writer, "saved")
}

// load restores methods and agents.
func (r *Repl) load(writer io.Writer) {
	if err := r.dispatcher.LoadMethods(); err != nil {
		redColor.Fprintf(writer, "load methods failed: %v\n", err)
		return
	}
	if err := r.dispatcher.LoadAgents(); err != nil {
		redColor.Fprintf(writer, "load agents failed: %v\n", err)
		return
	}
	yellowColor.Fprintln(writer, "loaded")
}
