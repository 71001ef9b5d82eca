package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cyberrange/rangesim/pkg/cli"
	"github.com/cyberrange/rangesim/pkg/network"
	"github.com/cyberrange/rangesim/pkg/request"
	"github.com/cyberrange/rangesim/pkg/sim"
	"github.com/cyberrange/rangesim/pkg/software"
	"github.com/cyberrange/rangesim/pkg/spec"
)

// softwareKindName renders a software.Kind for display; software.Kind has
// no String() method of its own since the manager never needs to print
// it, only branch on it.
func softwareKindName(k software.Kind) string {
	switch k {
	case software.KindService:
		return "service"
	case software.KindApplication:
		return "application"
	case software.KindProcess:
		return "process"
	default:
		return "unknown"
	}
}

// shell is an interactive REPL connected to one built node, grounded on
// the teacher's cmd/newtron Shell (persistent device connection, a
// map[string]func(args []string) command table, a reader loop over
// bufio.Reader, quit/disconnect/q special-cased ahead of the table) —
// retargeted from device configuration commands to dispatching requests
// against a running simulated node and inspecting its state.
type shell struct {
	net      *network.Network
	root     *request.Manager
	node     *network.Node
	hostname string
	reader   *bufio.Reader
	commands map[string]func(args []string)
}

func newShell(net *network.Network, root *request.Manager, node *network.Node, hostname string) *shell {
	s := &shell{
		net:      net,
		root:     root,
		node:     node,
		hostname: hostname,
		reader:   bufio.NewReader(os.Stdin),
	}
	s.commands = map[string]func(args []string){
		"show":   func([]string) { s.cmdShow() },
		"dial":   s.cmdDispatch,
		"login":  s.cmdLogin,
		"logout": s.cmdLogout,
		"tick":   func([]string) { s.cmdTick() },
		"help":   func([]string) { s.cmdHelp() },
		"?":      func([]string) { s.cmdHelp() },
	}
	return s
}

// Run starts the interactive console loop.
func (s *shell) Run() error {
	fmt.Printf("Connected to %s.\n", cli.Bold(s.hostname))
	fmt.Println("Type 'help' for available commands.")

	for {
		fmt.Printf("%s> ", s.hostname)

		line, err := s.reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		cmd := args[0]

		switch cmd {
		case "quit", "disconnect", "q":
			return nil
		default:
			if fn, ok := s.commands[cmd]; ok {
				fn(args[1:])
			} else {
				fmt.Printf("unknown command: %s (type 'help' for commands)\n", cmd)
			}
		}
	}
}

// cmdShow prints the node's current operating state, installed software,
// and interfaces, the console's equivalent of the teacher's "show".
func (s *shell) cmdShow() {
	fmt.Printf("hostname: %s\n", s.node.Hostname)
	fmt.Printf("kind:     %s\n", s.node.Kind.String())
	fmt.Printf("state:    %s\n", formatNodeState(s.node.OperatingState.String()))

	t := cli.NewTable("INTERFACE", "MAC")
	for _, name := range s.node.SortedNICNames() {
		nic, _ := s.node.NIC(name)
		t.Row(name, nic.MAC())
	}
	t.Flush()

	soft := cli.NewTable("SOFTWARE", "KIND")
	for name, inst := range s.node.SoftwareManager.All() {
		soft.Row(name, softwareKindName(inst.Kind))
	}
	soft.Flush()
}

// cmdDispatch runs `dial <dotted.path> [args...]` against the node's own
// request subtree (the hostname segment is filled in for the caller), so
// an operator can exercise any action path the learning agents would
// without hand-assembling the full `network.node.<hostname>...` prefix.
func (s *shell) cmdDispatch(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: dial <dotted.path> [args...]")
		return
	}
	path := request.Path("network", "node", s.hostname, args[0])
	if len(args) > 1 {
		path = request.Path(append([]string{path}, args[1:]...)...)
	}
	resp := request.Dispatch(s.root, path)
	switch resp.Outcome {
	case request.Success:
		fmt.Println(cli.Green("success"))
	case request.Failure:
		fmt.Println(cli.Red("failure: ") + resp.Reason)
	default:
		fmt.Println(cli.Yellow("unreachable: ") + resp.Reason)
	}
}

// cmdLogin prompts for a username and, unless piped from a non-terminal
// stdin, reads the password without echoing it via golang.org/x/term —
// the same terminal package pkg/cli already depends on for width-aware
// table rendering, here exercised for its password-entry half instead.
func (s *shell) cmdLogin(args []string) {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("username: ")
		line, _ := s.reader.ReadString('\n')
		username = strings.TrimSpace(line)
	}
	if username == "" {
		fmt.Println("login requires a username")
		return
	}

	password := s.readPassword()
	path := request.Path("network", "node", s.hostname, "service", "Terminal", "app", "login", username, password)
	resp := request.Dispatch(s.root, path)
	if resp.Outcome == request.Success {
		fmt.Println(cli.Green("login succeeded"))
		return
	}
	fmt.Println(cli.Red("login failed: ") + resp.Reason)
}

// cmdLogout ends an active session for the named user.
func (s *shell) cmdLogout(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: logout <username>")
		return
	}
	path := request.Path("network", "node", s.hostname, "service", "Terminal", "app", "logout", args[0])
	resp := request.Dispatch(s.root, path)
	if resp.Outcome == request.Success {
		fmt.Println(cli.Green("logout succeeded"))
		return
	}
	fmt.Println(cli.Red("logout failed: ") + resp.Reason)
}

// cmdTick advances the whole network by one timestep, the console's way
// of observing timeout/health decay between dispatched actions without
// spinning up a full sim.Driver episode.
func (s *shell) cmdTick() {
	s.net.ApplyTimestep()
	fmt.Println("advanced one tick")
}

func (s *shell) cmdHelp() {
	fmt.Println(`available commands:
  show                        print this node's state, interfaces, and software
  dial <path> [args...]       dispatch a request path against this node
  login [username]            log in to this node's Terminal service
  logout <username>           end an active Terminal session
  tick                        advance the network by one timestep
  help, ?                     show this message
  quit, disconnect, q         leave the console`)
}

// readPassword reads a password from stdin, suppressing echo when stdin
// is an interactive terminal; piped input (scripted test runs) falls back
// to a plain line read.
func (s *shell) readPassword() string {
	fmt.Print("password: ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err == nil {
			return string(b)
		}
	}
	line, _ := s.reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// newShellCmd builds "rangesim shell", an interactive console onto one
// built node, grounded on the teacher's cmd/newtron shell.go + its
// interactive.go login prompt, and pkg/appsvc.Terminal's SSH-backed
// credential check (spec.md §4.4).
func newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell <scenario.yaml> <hostname>",
		Short: "Open an interactive console onto one built node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarioPath, hostname := args[0], args[1]

			s, err := spec.NewLoader(scenarioPath).Load()
			if err != nil {
				return fmt.Errorf("loading scenario: %w", err)
			}

			net, err := sim.Build(s)
			if err != nil {
				return fmt.Errorf("building scenario: %w", err)
			}

			node, ok := net.Node(hostname)
			if !ok {
				return fmt.Errorf("no node named %q in this scenario", hostname)
			}

			root := net.BuildRequestManager()
			return newShell(net, root, node, hostname).Run()
		},
	}
	return cmd
}
